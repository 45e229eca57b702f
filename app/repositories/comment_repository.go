package repositories

import (
	"context"
	"fmt"

	"folio/app/models"

	"github.com/uptrace/bun"
)

// BunCommentRepository implements CommentRepository on a SQL database
type BunCommentRepository struct {
	db *bun.DB
}

// NewBunCommentRepository creates a new BunCommentRepository
func NewBunCommentRepository(db *bun.DB) *BunCommentRepository {
	return &BunCommentRepository{db: db}
}

// Create inserts a comment; the post must already exist
func (r *BunCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return fmt.Errorf("invalid comment: %w", err)
	}
	if _, err := r.db.NewInsert().Model(comment).Exec(ctx); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID
func (r *BunCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment := new(models.Comment)
	if err := r.db.NewSelect().Model(comment).Where("c.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return comment, nil
}

// ListByPostURL returns the comments of the post at url, oldest first
func (r *BunCommentRepository) ListByPostURL(ctx context.Context, url string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := r.db.NewSelect().
		Model(&comments).
		Join("JOIN posts AS p ON p.id = c.post_id").
		Where("p.url = ?", url).
		OrderExpr("c.created_at ASC, c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment by ID
func (r *BunCommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*models.Comment)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
