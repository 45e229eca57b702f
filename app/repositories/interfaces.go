package repositories

import (
	"context"
	"io"
	"time"

	"folio/app/models"
)

// PostRepository defines the interface for post data access
type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	FindByURL(ctx context.Context, url string) (*models.Post, error)
	FindOrCreate(ctx context.Context, url string) (*models.Post, error)
	IncrementViews(ctx context.Context, url string) (*models.Post, error)
	IncrementLikes(ctx context.Context, url string) (*models.Post, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByPostURL(ctx context.Context, url string) ([]*models.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// PageViewFilter narrows page view aggregations. A zero From disables the
// date range.
type PageViewFilter struct {
	From   time.Time
	To     time.Time
	Search string
}

// DailyCount is the number of views recorded on one UTC day.
type DailyCount struct {
	Day   string `bun:"day" json:"day"`
	Count int64  `bun:"page_views_count" json:"page_views_count"`
}

// URLCount is the number of views of one URL.
type URLCount struct {
	URL       string `bun:"url" json:"url"`
	PageViews int64  `bun:"pageviews" json:"pageviews"`
}

// PageViewRepository defines the interface for page view storage and
// aggregation
type PageViewRepository interface {
	Insert(ctx context.Context, view *models.PageView) error
	CountByURL(ctx context.Context, url string) (int64, error)
	Totals(ctx context.Context, f PageViewFilter) (views int64, uniqueURLs int64, err error)
	DailyCounts(ctx context.Context, f PageViewFilter) ([]DailyCount, error)
	ViewsPerURL(ctx context.Context, f PageViewFilter, limit, offset int) ([]URLCount, error)
}

// AccountRepository defines the interface for admin accounts
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
}

// KVStore is a small key-value store with TTLs and counters
type KVStore interface {
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)
	Incr(key string) (int64, error)
	GetInt(key string) (int64, error)
	Backup(w io.Writer) error
	Load(r io.Reader) error
	Close() error
}
