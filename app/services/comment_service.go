package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"folio/app/events"
	"folio/app/logging"
	"folio/app/metrics"
	"folio/app/models"
	"folio/app/repositories"
)

var (
	ErrInvalidComment = errors.New("invalid comment")
	ErrMissingBlogURL = errors.New("no blog url provided")
)

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
	events      Publisher
}

// NewCommentService creates a new CommentService. events may be nil.
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, events Publisher) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		events:      events,
	}
}

// CreateComment stores a comment on the post at blogURL, creating the post
// row if this is its first comment.
func (s *CommentService) CreateComment(ctx context.Context, author, text, blogURL string) (*models.Comment, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	blogURL = strings.TrimSpace(blogURL)
	if author == "" || text == "" || blogURL == "" {
		return nil, fmt.Errorf("%w: author, comment and blogUrl are required", ErrInvalidComment)
	}

	comment := &models.Comment{Author: author, Text: text}
	if err := comment.ValidateContent(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidComment, err)
	}

	post, err := s.postRepo.FindOrCreate(ctx, blogURL)
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	metrics.CommentsCreated.Inc()

	if s.events != nil {
		ev := events.CommentCreated{
			CommentID: comment.ID,
			Author:    comment.Author,
			Text:      comment.Text,
			BlogURL:   blogURL,
		}
		if err := s.events.Publish(ctx, events.TopicCommentCreated, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("comment_id", comment.ID).Msg("failed to publish comment event")
		}
	}
	return comment, nil
}

// ListComments returns the comments on blogURL, oldest first
func (s *CommentService) ListComments(ctx context.Context, blogURL string) ([]*models.Comment, error) {
	blogURL = strings.TrimSpace(blogURL)
	if blogURL == "" {
		return nil, ErrMissingBlogURL
	}
	return s.commentRepo.ListByPostURL(ctx, blogURL)
}

// GetComment retrieves a comment by ID
func (s *CommentService) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

// DeleteComment deletes a comment
func (s *CommentService) DeleteComment(ctx context.Context, id int64) error {
	return s.commentRepo.Delete(ctx, id)
}
