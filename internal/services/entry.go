package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/dmitrijs2005/gophjournal/internal/mediastore"
	"github.com/dmitrijs2005/gophjournal/internal/models"
	"github.com/dmitrijs2005/gophjournal/internal/repositories/entries"
)

// MediaStore is the subset of the media blob store the entry service needs.
type MediaStore interface {
	SaveMediaFile(ctx context.Context, r io.Reader, filename string) (string, int64, error)
	DeleteMediaFile(ctx context.Context, path string) error
}

// Attachment is a media payload waiting to be written to the blob store.
type Attachment struct {
	Reader   io.Reader
	MimeType string
	Duration float64
}

// EntryPatch lists the fields UpdateEntry may change. Nil pointers leave a
// field as it is.
type EntryPatch struct {
	Text      *string
	Tags      *[]string
	PromptID  *string
	CreatedAt *time.Time
	Audio     *models.MediaRef
	Video     *models.MediaRef
	Images    *[]models.ImageRef

	ClearAudio bool
	ClearVideo bool
}

// EntryService is the decrypted view of the journal.
//
// Writes seal text and tags through the session when it is unlocked; reads
// open them again. A value that fails to open is returned as stored. Every
// mutation except starring and AI annotation refreshes updatedAt.
type EntryService interface {
	AddEntry(ctx context.Context, e *models.Entry) (int64, error)
	AddEntryWithMedia(ctx context.Context, e *models.Entry, atts []Attachment) (int64, int, error)
	AttachMedia(ctx context.Context, id int64, att Attachment) (*models.Entry, error)
	UpdateEntry(ctx context.Context, id int64, patch EntryPatch) (*models.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)
	GetEntries(ctx context.Context, q models.EntryQuery) ([]models.Entry, error)
	GetAllEntries(ctx context.Context) ([]models.Entry, error)
	GetEntryCount(ctx context.Context) (int, error)
	GetAllTags(ctx context.Context) ([]string, error)
	RemoveTagFromAllEntries(ctx context.Context, tag string) (int, error)
	RenameTagInAllEntries(ctx context.Context, oldTag, newTag string) (int, error)
	ToggleStarEntry(ctx context.Context, id int64, current bool) (bool, error)
	GetStarredEntries(ctx context.Context) ([]models.Entry, error)
	GetOnThisDayEntries(ctx context.Context) ([]models.Entry, error)
	UpdateEntryAI(ctx context.Context, id int64, insight *models.AIInsight) error
	CreatedAtKeys(ctx context.Context) (map[string]struct{}, error)
	OnChange(fn func())
}

// EntryOption customizes an entry service.
type EntryOption func(*entryService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EntryOption {
	return func(s *entryService) { s.now = now }
}

// WithMediaStore enables attachment writes and blob cleanup.
func WithMediaStore(m MediaStore) EntryOption {
	return func(s *entryService) { s.media = m }
}

type entryService struct {
	db      *sql.DB
	session *cryptox.Session
	media   MediaStore
	log     logging.Logger
	now     func() time.Time

	mu        sync.Mutex
	listeners []func()
}

func NewEntryService(db *sql.DB, session *cryptox.Session, log logging.Logger, opts ...EntryOption) EntryService {
	s := &entryService{db: db, session: session, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *entryService) getRepo() entries.Repository {
	return entries.NewSQLiteRepository(s.db)
}

func (s *entryService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// OnChange registers fn to run after every successful mutation.
func (s *entryService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *entryService) changed() {
	s.mu.Lock()
	ls := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

// seal returns a copy of e with text and tags sealed.
func (s *entryService) seal(e models.Entry) (models.Entry, error) {
	text, err := s.session.Seal(e.Text)
	if err != nil {
		return e, fmt.Errorf("seal text: %w", err)
	}
	e.Text = text

	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		if tags[i], err = s.session.Seal(t); err != nil {
			return e, fmt.Errorf("seal tag: %w", err)
		}
	}
	e.Tags = tags
	return e, nil
}

// open decrypts text and tags in place. Fields that fail to open keep their
// stored form.
func (s *entryService) open(ctx context.Context, e *models.Entry) {
	text, err := s.session.Open(e.Text)
	if err != nil {
		s.log.Debug(ctx, "entry text left sealed", "entry_id", e.ID, "error", err)
	}
	e.Text = text

	for i, t := range e.Tags {
		plain, err := s.session.Open(t)
		if err != nil {
			s.log.Debug(ctx, "entry tag left sealed", "entry_id", e.ID, "error", err)
		}
		e.Tags[i] = plain
	}
}

func (s *entryService) AddEntry(ctx context.Context, e *models.Entry) (int64, error) {
	now := s.timestamp()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Millisecond)
	e.UpdatedAt = e.UpdatedAt.UTC().Truncate(time.Millisecond)
	e.Tags = models.NormalizeTags(e.Tags)
	e.Deleted = false

	row, err := s.seal(*e)
	if err != nil {
		return 0, err
	}

	id, err := s.getRepo().Add(ctx, &row)
	if err != nil {
		return 0, fmt.Errorf("add entry: %w", err)
	}
	e.ID = id

	s.changed()
	return id, nil
}

// saveAttachment writes att and records it on e.
func (s *entryService) saveAttachment(ctx context.Context, e *models.Entry, att Attachment) error {
	if s.media == nil {
		return common.ErrMediaUnsupported
	}

	kind := models.KindOf(att.MimeType)
	if kind == "" {
		return fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, att.MimeType)
	}

	name := mediastore.NewFilename(att.MimeType)
	path, size, err := s.media.SaveMediaFile(ctx, att.Reader, name)
	if err != nil {
		return err
	}

	switch kind {
	case models.MediaImage:
		e.Images = append(e.Images, models.ImageRef{Path: path, MimeType: att.MimeType, Size: size})
	case models.MediaAudio:
		e.Audio = &models.MediaRef{Path: path, MimeType: att.MimeType, Duration: att.Duration, Size: size}
	case models.MediaVideo:
		e.Video = &models.MediaRef{Path: path, MimeType: att.MimeType, Duration: att.Duration, Size: size}
	}
	return nil
}

// AddEntryWithMedia saves each attachment and then the entry. A failed
// attachment is dropped and counted; the entry is still saved.
func (s *entryService) AddEntryWithMedia(ctx context.Context, e *models.Entry, atts []Attachment) (int64, int, error) {
	dropped := 0
	for _, att := range atts {
		if err := s.saveAttachment(ctx, e, att); err != nil {
			dropped++
			s.log.Warn(ctx, "media write failed, saving entry without it", "mime", att.MimeType, "error", err)
		}
	}

	id, err := s.AddEntry(ctx, e)
	return id, dropped, err
}

// AttachMedia stores att and links it to an existing entry. Audio and video
// replace any previous clip of the same kind.
func (s *entryService) AttachMedia(ctx context.Context, id int64, att Attachment) (*models.Entry, error) {
	cur, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	next.Images = append([]models.ImageRef(nil), cur.Images...)
	if err := s.saveAttachment(ctx, &next, att); err != nil {
		return nil, err
	}

	patch := EntryPatch{Audio: next.Audio, Video: next.Video, Images: &next.Images}
	return s.UpdateEntry(ctx, id, patch)
}

func (s *entryService) UpdateEntry(ctx context.Context, id int64, patch EntryPatch) (*models.Entry, error) {
	cur, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur

	if patch.Text != nil {
		next.Text = *patch.Text
	}
	if patch.Tags != nil {
		next.Tags = *patch.Tags
	}
	if patch.PromptID != nil {
		next.PromptID = *patch.PromptID
	}
	if patch.CreatedAt != nil {
		next.CreatedAt = patch.CreatedAt.UTC().Truncate(time.Millisecond)
	}
	if patch.ClearAudio {
		next.Audio = nil
	} else if patch.Audio != nil {
		next.Audio = patch.Audio
	}
	if patch.ClearVideo {
		next.Video = nil
	} else if patch.Video != nil {
		next.Video = patch.Video
	}
	if patch.Images != nil {
		next.Images = *patch.Images
	}

	next.Tags = models.NormalizeTags(next.Tags)
	next.UpdatedAt = s.timestamp()

	row, err := s.seal(next)
	if err != nil {
		return nil, err
	}
	if err := s.getRepo().Update(ctx, &row); err != nil {
		return nil, fmt.Errorf("update entry %d: %w", id, err)
	}

	s.removeOrphans(ctx, cur.MediaPaths(), next.MediaPaths())
	s.changed()
	return &next, nil
}

// removeOrphans deletes blobs referenced by before but not by after.
func (s *entryService) removeOrphans(ctx context.Context, before, after []string) {
	if s.media == nil {
		return
	}
	keep := make(map[string]struct{}, len(after))
	for _, p := range after {
		keep[p] = struct{}{}
	}
	for _, p := range before {
		if _, ok := keep[p]; ok {
			continue
		}
		if err := s.media.DeleteMediaFile(ctx, p); err != nil {
			s.log.Warn(ctx, "media cleanup failed", "path", p, "error", err)
		}
	}
}

// DeleteEntry tombstones the row. Its media stays in the blob store.
func (s *entryService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.getRepo().SoftDelete(ctx, id, s.timestamp()); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	s.changed()
	return nil
}

func (s *entryService) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	e, err := s.getRepo().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Deleted {
		return nil, common.ErrorNotFound
	}
	s.open(ctx, e)
	return e, nil
}

// collect streams rows matching f, decrypts them and keeps those accepted by
// keep until limit rows are gathered (0 means all).
func (s *entryService) collect(ctx context.Context, f entries.Filter, limit int, keep func(models.Entry) bool) ([]models.Entry, error) {
	out := []models.Entry{}
	err := s.getRepo().Iterate(ctx, f, func(e models.Entry) (bool, error) {
		s.open(ctx, &e)
		if keep != nil && !keep(e) {
			return true, nil
		}
		out = append(out, e)
		return limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetEntries returns one page in createdAt-descending order. Tags are sealed
// with random IVs, so the tag filter runs after decryption and the SQL limit
// only applies when no tag filter is set.
func (s *entryService) GetEntries(ctx context.Context, q models.EntryQuery) ([]models.Entry, error) {
	f := entries.Filter{Before: q.Before, From: q.From, To: q.To}
	if q.Tag == "" {
		f.Limit = q.Limit
		return s.collect(ctx, f, q.Limit, nil)
	}
	return s.collect(ctx, f, q.Limit, q.Matches)
}

func (s *entryService) GetAllEntries(ctx context.Context) ([]models.Entry, error) {
	return s.collect(ctx, entries.Filter{}, 0, nil)
}

func (s *entryService) GetEntryCount(ctx context.Context) (int, error) {
	return s.getRepo().Count(ctx)
}

func (s *entryService) GetAllTags(ctx context.Context) ([]string, error) {
	all, err := s.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	set := map[string]struct{}{}
	for _, e := range all {
		for _, t := range e.Tags {
			if cryptox.IsEncrypted(t) {
				continue
			}
			set[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// rewriteTags applies fn to every live entry carrying tag. Rows are updated
// one by one; a failed row does not stop the rest.
func (s *entryService) rewriteTags(ctx context.Context, tag string, fn func([]string) []string) (int, error) {
	matching, err := s.collect(ctx, entries.Filter{}, 0, func(e models.Entry) bool { return e.HasTag(tag) })
	if err != nil {
		return 0, err
	}

	var errs []error
	n := 0
	for _, e := range matching {
		tags := fn(e.Tags)
		if _, err := s.UpdateEntry(ctx, e.ID, EntryPatch{Tags: &tags}); err != nil {
			s.log.Warn(ctx, "tag rewrite failed", "entry_id", e.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func (s *entryService) RemoveTagFromAllEntries(ctx context.Context, tag string) (int, error) {
	tag = models.NormalizeTag(tag)
	if tag == "" {
		return 0, common.ErrInvalidTag
	}
	return s.rewriteTags(ctx, tag, func(tags []string) []string {
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if t != tag {
				out = append(out, t)
			}
		}
		return out
	})
}

func (s *entryService) RenameTagInAllEntries(ctx context.Context, oldTag, newTag string) (int, error) {
	oldTag, newTag = models.NormalizeTag(oldTag), models.NormalizeTag(newTag)
	if oldTag == "" || newTag == "" {
		return 0, common.ErrInvalidTag
	}
	if oldTag == newTag {
		return 0, nil
	}
	return s.rewriteTags(ctx, oldTag, func(tags []string) []string {
		out := make([]string, len(tags))
		for i, t := range tags {
			if t == oldTag {
				t = newTag
			}
			out[i] = t
		}
		return out
	})
}

// ToggleStarEntry stores !current and returns it. updatedAt is untouched.
func (s *entryService) ToggleStarEntry(ctx context.Context, id int64, current bool) (bool, error) {
	if err := s.getRepo().SetStarred(ctx, id, !current); err != nil {
		return current, fmt.Errorf("star entry %d: %w", id, err)
	}
	s.changed()
	return !current, nil
}

func (s *entryService) GetStarredEntries(ctx context.Context) ([]models.Entry, error) {
	return s.collect(ctx, entries.Filter{StarredOnly: true}, 0, nil)
}

// GetOnThisDayEntries returns entries written on today's month and day in
// earlier years, oldest first. Calendar days use the clock's location.
func (s *entryService) GetOnThisDayEntries(ctx context.Context) ([]models.Entry, error) {
	now := s.now()
	loc := now.Location()
	_, month, day := now.Date()

	return s.collect(ctx, entries.Filter{Ascending: true}, 0, func(e models.Entry) bool {
		y, m, d := e.CreatedAt.In(loc).Date()
		return m == month && d == day && y < now.Year()
	})
}

// UpdateEntryAI attaches an insight without refreshing updatedAt.
func (s *entryService) UpdateEntryAI(ctx context.Context, id int64, insight *models.AIInsight) error {
	if err := s.getRepo().SetAIInsight(ctx, id, insight); err != nil {
		return fmt.Errorf("update insight %d: %w", id, err)
	}
	s.changed()
	return nil
}

// CreatedAtKeys returns the canonical createdAt of every live entry.
func (s *entryService) CreatedAtKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := map[string]struct{}{}
	err := s.getRepo().Iterate(ctx, entries.Filter{}, func(e models.Entry) (bool, error) {
		keys[e.CreatedKey()] = struct{}{}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
