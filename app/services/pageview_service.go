package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"folio/app/logging"
	"folio/app/metrics"
	"folio/app/models"
	"folio/app/repositories"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBotRequest   = errors.New("this endpoint is not available for bots")
	ErrMissingURL   = errors.New("missing URL")
	ErrUntrackedURL = errors.New("this url is not tracked")
	ErrDisabled     = errors.New("view tracking is disabled in development")
)

// Stats modes
const (
	ModePageViews = "page-views"
	ModeURLs      = "urls"
)

// PageViewConfig tunes the page view service
type PageViewConfig struct {
	Development   bool
	UntrackedURLs []string
	// Epoch is the lower bound of the all-time range.
	Epoch    time.Time
	PageSize int
}

// StatsQuery selects the page view aggregation to run
type StatsQuery struct {
	DateRange string
	Page      int
	Search    string
	Mode      string
}

// Stats is the page view aggregation result. Fields not produced by the
// selected mode are left empty.
type Stats struct {
	TotalViews      int64                     `json:"totalViews"`
	TotalUniqueURLs *int64                    `json:"totalUniqueURLs,omitempty"`
	TotalPages      *int64                    `json:"totalPages,omitempty"`
	PageViews       []repositories.DailyCount `json:"pageViews,omitempty"`
	ViewsPerURL     []repositories.URLCount   `json:"viewsPerUrl,omitempty"`
}

// MarshalJSON writes only the fields of the mode that produced s. The
// mode's own list is always present, as [] when there are no rows.
func (s Stats) MarshalJSON() ([]byte, error) {
	out := struct {
		TotalViews      int64                      `json:"totalViews"`
		TotalUniqueURLs *int64                     `json:"totalUniqueURLs,omitempty"`
		TotalPages      *int64                     `json:"totalPages,omitempty"`
		PageViews       *[]repositories.DailyCount `json:"pageViews,omitempty"`
		ViewsPerURL     *[]repositories.URLCount   `json:"viewsPerUrl,omitempty"`
	}{
		TotalViews:      s.TotalViews,
		TotalUniqueURLs: s.TotalUniqueURLs,
		TotalPages:      s.TotalPages,
	}
	if s.TotalUniqueURLs != nil {
		perURL := s.ViewsPerURL
		if perURL == nil {
			perURL = []repositories.URLCount{}
		}
		out.ViewsPerURL = &perURL
	} else {
		daily := s.PageViews
		if daily == nil {
			daily = []repositories.DailyCount{}
		}
		out.PageViews = &daily
	}
	return json.Marshal(out)
}

// PageViewService records and aggregates page views
type PageViewService struct {
	repo      repositories.PageViewRepository
	cfg       PageViewConfig
	untracked map[string]struct{}
	now       func() time.Time
}

func NewPageViewService(repo repositories.PageViewRepository, cfg PageViewConfig) *PageViewService {
	if cfg.PageSize < 1 {
		cfg.PageSize = 10
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	}
	untracked := make(map[string]struct{}, len(cfg.UntrackedURLs))
	for _, u := range cfg.UntrackedURLs {
		untracked[u] = struct{}{}
	}
	return &PageViewService{
		repo:      repo,
		cfg:       cfg,
		untracked: untracked,
		now:       time.Now,
	}
}

// Record stores one view of url.
func (s *PageViewService) Record(ctx context.Context, url, userAgent string) error {
	url = strings.TrimSpace(url)
	var err error
	switch {
	case IsBot(userAgent):
		err = ErrBotRequest
	case s.cfg.Development:
		err = ErrDisabled
	case url == "":
		err = ErrMissingURL
	default:
		if _, ok := s.untracked[url]; ok {
			err = ErrUntrackedURL
		}
	}
	if err != nil {
		metrics.PageViewsRejected.WithLabelValues(rejectReason(err)).Inc()
		return err
	}

	view := models.NewPageView(url, s.now())
	if err := s.repo.Insert(ctx, view); err != nil {
		metrics.PageViewsRejected.WithLabelValues("error").Inc()
		return fmt.Errorf("record page view: %w", err)
	}
	metrics.PageViewsRecorded.Inc()
	return nil
}

// Count returns the number of recorded views of url.
func (s *PageViewService) Count(ctx context.Context, url, userAgent string) (int64, error) {
	if IsBot(userAgent) {
		return 0, ErrBotRequest
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return 0, ErrMissingURL
	}
	return s.repo.CountByURL(ctx, url)
}

// Stats runs the aggregation selected by q.Mode.
func (s *PageViewService) Stats(ctx context.Context, q StatsQuery) (*Stats, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	now := s.now().UTC()
	filter := repositories.PageViewFilter{
		From:   s.rangeStart(q.DateRange, now),
		To:     now,
		Search: strings.TrimSpace(q.Search),
	}
	mode := q.Mode
	if mode == "" {
		mode = ModePageViews
	}

	start := time.Now()
	stats := &Stats{}
	var unique int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalViews, unique, err = s.repo.Totals(gctx, filter)
		return err
	})
	if mode == ModePageViews {
		g.Go(func() error {
			var err error
			stats.PageViews, err = s.repo.DailyCounts(gctx, filter)
			return err
		})
	} else {
		offset := (page - 1) * s.cfg.PageSize
		g.Go(func() error {
			var err error
			stats.ViewsPerURL, err = s.repo.ViewsPerURL(gctx, filter, s.cfg.PageSize, offset)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("page view stats: %w", err)
	}

	if mode != ModePageViews {
		pages := int64(math.Ceil(float64(unique) / float64(s.cfg.PageSize)))
		stats.TotalUniqueURLs = &unique
		stats.TotalPages = &pages
	}

	elapsed := time.Since(start)
	label := ModeURLs
	if mode == ModePageViews {
		label = ModePageViews
	}
	metrics.StatsQueryDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	logging.Ctx(ctx).Debug().
		Str("mode", mode).
		Str("date_range", q.DateRange).
		Dur("duration", elapsed).
		Msg("page view stats query")
	return stats, nil
}

func (s *PageViewService) rangeStart(dateRange string, now time.Time) time.Time {
	day := 24 * time.Hour
	switch dateRange {
	case "past-day":
		return now.Add(-day)
	case "past-week":
		return now.Add(-7 * day)
	case "past-month":
		return now.Add(-30 * day)
	case "past-year":
		return now.Add(-365 * day)
	default:
		return s.cfg.Epoch
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrBotRequest):
		return "bot"
	case errors.Is(err, ErrMissingURL):
		return "missing_url"
	case errors.Is(err, ErrUntrackedURL):
		return "untracked"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	default:
		return "error"
	}
}
