package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"folio/app/logging"
	"folio/app/models"
	"folio/app/repositories"
)

var ErrMissingReferer = errors.New("missing or invalid referer")

// PostCounterService keeps the per-post view and like counters, keyed by the
// path of the page that made the request.
type PostCounterService struct {
	postRepo    repositories.PostRepository
	development bool
}

// NewPostCounterService creates a new PostCounterService. Counters are not
// touched in development.
func NewPostCounterService(postRepo repositories.PostRepository, development bool) *PostCounterService {
	return &PostCounterService{
		postRepo:    postRepo,
		development: development,
	}
}

// IncrementViews bumps the view counter of the post at the referer's path.
// It returns nil, nil when nothing was counted.
func (s *PostCounterService) IncrementViews(ctx context.Context, referer string) (*models.Post, error) {
	return s.increment(ctx, referer, s.postRepo.IncrementViews)
}

// IncrementLikes bumps the like counter of the post at the referer's path.
func (s *PostCounterService) IncrementLikes(ctx context.Context, referer string) (*models.Post, error) {
	return s.increment(ctx, referer, s.postRepo.IncrementLikes)
}

// GetPost returns the counters of the post at url.
func (s *PostCounterService) GetPost(ctx context.Context, url string) (*models.Post, error) {
	return s.postRepo.FindByURL(ctx, url)
}

func (s *PostCounterService) increment(ctx context.Context, referer string, inc func(context.Context, string) (*models.Post, error)) (*models.Post, error) {
	if s.development {
		return nil, nil
	}
	path, err := refererPath(referer)
	if err != nil {
		logging.Ctx(ctx).Debug().Str("referer", referer).Msg("counter skipped")
		return nil, nil
	}
	post, err := inc(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("increment counter for %s: %w", path, err)
	}
	return post, nil
}

// refererPath extracts the path component of a Referer header value.
func refererPath(referer string) (string, error) {
	referer = strings.TrimSpace(referer)
	if referer == "" {
		return "", ErrMissingReferer
	}
	u, err := url.Parse(referer)
	if err != nil || u.Path == "" {
		return "", ErrMissingReferer
	}
	return u.Path, nil
}
