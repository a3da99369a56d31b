package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/models"
)

const selectColumns = `id, created_at, updated_at, text, tags, prompt_id, audio, video, images, deleted, starred, ai_insight`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// row holds the encoded column values of an entry.
type row struct {
	tags, audio, video, images, insight sql.NullString
}

func encodeJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func encodeRow(e *models.Entry) (row, error) {
	var r row
	var err error

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	if r.tags, err = encodeJSON(tags, false); err != nil {
		return r, fmt.Errorf("encode tags: %w", err)
	}
	if r.audio, err = encodeJSON(e.Audio, e.Audio == nil); err != nil {
		return r, fmt.Errorf("encode audio: %w", err)
	}
	if r.video, err = encodeJSON(e.Video, e.Video == nil); err != nil {
		return r, fmt.Errorf("encode video: %w", err)
	}
	if r.images, err = encodeJSON(e.Images, len(e.Images) == 0); err != nil {
		return r, fmt.Errorf("encode images: %w", err)
	}
	if r.insight, err = encodeJSON(e.AIInsight, e.AIInsight == nil); err != nil {
		return r, fmt.Errorf("encode ai insight: %w", err)
	}
	return r, nil
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.Entry, error) {
	var (
		e                models.Entry
		created, updated string
		r                row
		deleted, starred int
	)
	if err := s.Scan(&e.ID, &created, &updated, &e.Text, &r.tags, &e.PromptID,
		&r.audio, &r.video, &r.images, &deleted, &starred, &r.insight); err != nil {
		return e, err
	}

	var err error
	if e.CreatedAt, err = models.ParseTimestamp(created); err != nil {
		return e, fmt.Errorf("entry %d created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = models.ParseTimestamp(updated); err != nil {
		return e, fmt.Errorf("entry %d updated_at: %w", e.ID, err)
	}
	e.Deleted = deleted != 0
	e.Starred = starred != 0

	if err := decodeJSON(r.tags, &e.Tags); err != nil {
		return e, fmt.Errorf("entry %d tags: %w", e.ID, err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := decodeJSON(r.audio, &e.Audio); err != nil {
		return e, fmt.Errorf("entry %d audio: %w", e.ID, err)
	}
	if err := decodeJSON(r.video, &e.Video); err != nil {
		return e, fmt.Errorf("entry %d video: %w", e.ID, err)
	}
	if err := decodeJSON(r.images, &e.Images); err != nil {
		return e, fmt.Errorf("entry %d images: %w", e.ID, err)
	}
	if err := decodeJSON(r.insight, &e.AIInsight); err != nil {
		return e, fmt.Errorf("entry %d ai_insight: %w", e.ID, err)
	}
	return e, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectOne(res sql.Result, id int64) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

// Add inserts a row exactly as given and sets e.ID.
func (r *SQLiteRepository) Add(ctx context.Context, e *models.Entry) (int64, error) {
	enc, err := encodeRow(e)
	if err != nil {
		return 0, err
	}

	query := `INSERT INTO entries (created_at, updated_at, text, tags, prompt_id, audio, video, images, deleted, starred, ai_insight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		models.FormatTimestamp(e.CreatedAt), models.FormatTimestamp(e.UpdatedAt),
		e.Text, enc.tags, e.PromptID, enc.audio, enc.video, enc.images,
		boolInt(e.Deleted), boolInt(e.Starred), enc.insight)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get entry id: %w", err)
	}
	e.ID = id
	return id, nil
}

// Update rewrites the content columns of a live row.
func (r *SQLiteRepository) Update(ctx context.Context, e *models.Entry) error {
	enc, err := encodeRow(e)
	if err != nil {
		return err
	}

	query := `UPDATE entries SET created_at = ?, updated_at = ?, text = ?, tags = ?, prompt_id = ?,
			audio = ?, video = ?, images = ?
		WHERE id = ? AND deleted = 0`
	res, err := r.db.ExecContext(ctx, query,
		models.FormatTimestamp(e.CreatedAt), models.FormatTimestamp(e.UpdatedAt),
		e.Text, enc.tags, e.PromptID, enc.audio, enc.video, enc.images, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectOne(res, e.ID)
}

// GetByID returns a row by id, tombstones included.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM entries WHERE id = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &e, nil
}

func buildFilter(f Filter) (string, []any) {
	conds := []string{"deleted = 0"}
	var args []any

	if !f.Before.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, models.FormatTimestamp(f.Before))
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, models.FormatTimestamp(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, models.FormatTimestamp(f.To))
	}
	if f.StarredOnly {
		conds = append(conds, "starred = 1")
	}

	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}

	query := `SELECT ` + selectColumns + ` FROM entries WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at ` + order + `, id ` + order
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return query, args
}

// Iterate streams live rows matching f.
func (r *SQLiteRepository) Iterate(ctx context.Context, f Filter, fn func(models.Entry) (bool, error)) error {
	query, args := buildFilter(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return err
		}
		more, err := fn(e)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return rows.Err()
}

// Count returns the number of live rows.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE deleted = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// SoftDelete marks a live row deleted.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		models.FormatTimestamp(updatedAt), id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectOne(res, id)
}

// SetStarred flips nothing but the starred column.
func (r *SQLiteRepository) SetStarred(ctx context.Context, id int64, starred bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET starred = ? WHERE id = ? AND deleted = 0`, boolInt(starred), id)
	if err != nil {
		return fmt.Errorf("failed to star entry: %w", err)
	}
	return expectOne(res, id)
}

// SetAIInsight writes nothing but the ai_insight column.
func (r *SQLiteRepository) SetAIInsight(ctx context.Context, id int64, insight *models.AIInsight) error {
	enc, err := encodeJSON(insight, insight == nil)
	if err != nil {
		return fmt.Errorf("encode ai insight: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET ai_insight = ? WHERE id = ? AND deleted = 0`, enc, id)
	if err != nil {
		return fmt.Errorf("failed to set ai insight: %w", err)
	}
	return expectOne(res, id)
}
