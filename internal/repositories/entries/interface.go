package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/models"
)

// Filter narrows Iterate. Zero values disable a condition. Before is an
// exclusive createdAt cursor, From/To are inclusive. Soft-deleted rows are
// always excluded.
type Filter struct {
	Before      time.Time
	From        time.Time
	To          time.Time
	StarredOnly bool
	// Limit caps the SQL result; 0 means no cap.
	Limit int
	// Ascending flips the default createdAt-descending order.
	Ascending bool
}

// Repository describes persistence for entry rows. Missing or soft-deleted
// ids report common.ErrorNotFound from the mutating methods.
type Repository interface {
	// Add inserts e, assigns e.ID and returns it.
	Add(ctx context.Context, e *models.Entry) (int64, error)

	// Update rewrites the content columns (text, tags, prompt, media,
	// timestamps) of a live row. Deleted, starred and aiInsight have their
	// own paths.
	Update(ctx context.Context, e *models.Entry) error

	// GetByID returns the row, including tombstones.
	GetByID(ctx context.Context, id int64) (*models.Entry, error)

	// Iterate streams live rows matching f in createdAt order until fn
	// returns false or an error.
	Iterate(ctx context.Context, f Filter, fn func(models.Entry) (bool, error)) error

	// Count returns the number of live rows.
	Count(ctx context.Context) (int, error)

	// SoftDelete marks the row deleted and sets updated_at.
	SoftDelete(ctx context.Context, id int64, updatedAt time.Time) error

	// SetStarred updates the starred flag only; updated_at is untouched.
	SetStarred(ctx context.Context, id int64, starred bool) error

	// SetAIInsight replaces ai_insight only; updated_at is untouched.
	SetAIInsight(ctx context.Context, id int64, insight *models.AIInsight) error
}
