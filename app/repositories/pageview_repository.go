package repositories

import (
	"context"
	"fmt"

	"folio/app/models"

	"github.com/uptrace/bun"
)

// BunPageViewRepository implements PageViewRepository on a SQL database
type BunPageViewRepository struct {
	db *bun.DB
}

// NewBunPageViewRepository creates a new BunPageViewRepository
func NewBunPageViewRepository(db *bun.DB) *BunPageViewRepository {
	return &BunPageViewRepository{db: db}
}

// Insert records one page view
func (r *BunPageViewRepository) Insert(ctx context.Context, view *models.PageView) error {
	view.Date = view.Date.UTC()
	if err := view.Validate(); err != nil {
		return fmt.Errorf("invalid page view: %w", err)
	}
	if _, err := r.db.NewInsert().Model(view).Exec(ctx); err != nil {
		return fmt.Errorf("insert page view: %w", err)
	}
	return nil
}

// CountByURL returns how many views url has
func (r *BunPageViewRepository) CountByURL(ctx context.Context, url string) (int64, error) {
	n, err := r.db.NewSelect().
		Model((*models.PageView)(nil)).
		Where("pv.url = ?", url).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count page views: %w", err)
	}
	return int64(n), nil
}

// Totals returns the total number of views and of distinct URLs
func (r *BunPageViewRepository) Totals(ctx context.Context, f PageViewFilter) (int64, int64, error) {
	var views, unique int64
	err := r.db.NewSelect().
		Model((*models.PageView)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COUNT(DISTINCT pv.url)").
		Apply(f.apply).
		Scan(ctx, &views, &unique)
	if err != nil {
		return 0, 0, fmt.Errorf("page view totals: %w", err)
	}
	return views, unique, nil
}

// DailyCounts groups views per UTC day, oldest day first
func (r *BunPageViewRepository) DailyCounts(ctx context.Context, f PageViewFilter) ([]DailyCount, error) {
	counts := make([]DailyCount, 0)
	err := r.db.NewSelect().
		Model((*models.PageView)(nil)).
		ColumnExpr(dayExpr(r.db, "pv.date")+" AS day").
		ColumnExpr("COUNT(*) AS page_views_count").
		Apply(f.apply).
		GroupExpr("day").
		OrderExpr("day ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("daily page views: %w", err)
	}
	return counts, nil
}

// ViewsPerURL returns one page of URLs ordered by view count
func (r *BunPageViewRepository) ViewsPerURL(ctx context.Context, f PageViewFilter, limit, offset int) ([]URLCount, error) {
	counts := make([]URLCount, 0)
	err := r.db.NewSelect().
		Model((*models.PageView)(nil)).
		ColumnExpr("pv.url AS url").
		ColumnExpr("COUNT(*) AS pageviews").
		Apply(f.apply).
		GroupExpr("pv.url").
		OrderExpr("pageviews DESC, pv.url ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &counts)
	if err != nil {
		return nil, fmt.Errorf("views per url: %w", err)
	}
	return counts, nil
}

func (f PageViewFilter) apply(q *bun.SelectQuery) *bun.SelectQuery {
	if !f.From.IsZero() {
		q = q.Where("pv.date >= ?", f.From.UTC())
		if !f.To.IsZero() {
			q = q.Where("pv.date <= ?", f.To.UTC())
		}
	}
	if f.Search != "" {
		q = q.Where("pv.url LIKE ?", "%"+f.Search+"%")
	}
	return q
}
