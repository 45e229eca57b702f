package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/app/logging"
	"folio/app/metrics"
	"folio/app/repositories"
)

var ErrMissingSlug = errors.New("slug not found")

// ViewCounterService counts views per slug in the key-value store, once per
// visitor IP within the dedup window.
type ViewCounterService struct {
	kv  repositories.KVStore
	ttl time.Duration
}

func NewViewCounterService(kv repositories.KVStore, dedupTTL time.Duration) *ViewCounterService {
	if dedupTTL <= 0 {
		dedupTTL = 24 * time.Hour
	}
	return &ViewCounterService{kv: kv, ttl: dedupTTL}
}

// Increment counts a view of slug from ip and reports whether it was
// counted. Repeat views from the same ip inside the window are not.
func (s *ViewCounterService) Increment(ctx context.Context, slug, ip string) (bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return false, ErrMissingSlug
	}

	if ip != "" {
		first, err := s.kv.SetNX(repositories.DedupKey(HashIP(ip), slug), []byte("1"), s.ttl)
		if err != nil {
			return false, fmt.Errorf("dedup view: %w", err)
		}
		if !first {
			metrics.ViewCounterIncrements.WithLabelValues("duplicate").Inc()
			return false, nil
		}
	}

	n, err := s.kv.Incr(repositories.PageViewKey(slug))
	if err != nil {
		return false, fmt.Errorf("count view: %w", err)
	}
	metrics.ViewCounterIncrements.WithLabelValues("counted").Inc()
	logging.Ctx(ctx).Debug().Str("slug", slug).Int64("views", n).Msg("view counted")
	return true, nil
}

// Get returns the view count of slug.
func (s *ViewCounterService) Get(ctx context.Context, slug string) (int64, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return 0, ErrMissingSlug
	}
	return s.kv.GetInt(repositories.PageViewKey(slug))
}

// HashIP returns the hex SHA-256 of ip.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
