package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"folio/app/models"

	"github.com/uptrace/bun"
)

// BunPostRepository implements PostRepository on a SQL database
type BunPostRepository struct {
	db *bun.DB
}

// NewBunPostRepository creates a new BunPostRepository
func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return &BunPostRepository{db: db}
}

// GetByID retrieves a post by ID
func (r *BunPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	post := new(models.Post)
	if err := r.db.NewSelect().Model(post).Where("p.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

// FindByURL retrieves the post anchored at url
func (r *BunPostRepository) FindByURL(ctx context.Context, url string) (*models.Post, error) {
	post := new(models.Post)
	if err := r.db.NewSelect().Model(post).Where("p.url = ?", url).Limit(1).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

// FindOrCreate returns the post for url, inserting it first when missing.
// Concurrent callers converge on the same row through the unique url index.
func (r *BunPostRepository) FindOrCreate(ctx context.Context, url string) (*models.Post, error) {
	post := &models.Post{URL: url}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}

	_, err := r.db.NewInsert().
		Model(post).
		On("CONFLICT (url) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return r.FindByURL(ctx, url)
}

// IncrementViews bumps the view counter of url, creating the post if needed
func (r *BunPostRepository) IncrementViews(ctx context.Context, url string) (*models.Post, error) {
	return r.increment(ctx, url, "view_count")
}

// IncrementLikes bumps the like counter of url, creating the post if needed
func (r *BunPostRepository) IncrementLikes(ctx context.Context, url string) (*models.Post, error) {
	return r.increment(ctx, url, "like_count")
}

func (r *BunPostRepository) increment(ctx context.Context, url, column string) (*models.Post, error) {
	if _, err := r.FindOrCreate(ctx, url); err != nil {
		return nil, err
	}
	_, err := r.db.NewUpdate().
		Model((*models.Post)(nil)).
		Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
		Where("url = ?", url).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("increment %s: %w", column, err)
	}
	return r.FindByURL(ctx, url)
}
