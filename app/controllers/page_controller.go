package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"folio/app/content"
	"folio/app/logging"
	"folio/app/middleware"
	"folio/app/models"
	"folio/app/services"
	"folio/app/views"

	"github.com/gorilla/mux"
)

// latestPosts is how many posts the home page lists.
const latestPosts = 3

var dateRanges = []string{"past-day", "past-week", "past-month", "past-year", "all-time"}

// PageController renders the HTML pages of the site
type PageController struct {
	entries   *content.Collection
	templates views.Templates
	comments  *services.CommentService
	views     *services.ViewCounterService
	pageViews *services.PageViewService
	siteName  string
	siteURL   string
}

// PageConfig wires the PageController
type PageConfig struct {
	Entries   *content.Collection
	Templates views.Templates
	Comments  *services.CommentService
	Views     *services.ViewCounterService
	PageViews *services.PageViewService
	SiteName  string
	SiteURL   string
}

func NewPageController(cfg PageConfig) *PageController {
	return &PageController{
		entries:   cfg.Entries,
		templates: cfg.Templates,
		comments:  cfg.Comments,
		views:     cfg.Views,
		pageViews: cfg.PageViews,
		siteName:  cfg.SiteName,
		siteURL:   strings.TrimRight(cfg.SiteURL, "/"),
	}
}

// Home lists the latest posts
func (pc *PageController) Home(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, "home", views.Page{
		OGImage: pc.siteURL + "/api/og?title=" + url.QueryEscape(pc.siteName),
		Content: pc.entries.Latest(latestPosts),
	})
}

// Blog lists every published post
func (pc *PageController) Blog(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, "blog", views.Page{
		Title: "Blog",
		Content: struct {
			Entries []*models.BlogEntry
			Tags    []string
		}{pc.entries.Published(), pc.entries.Tags()},
	})
}

// Post shows one post with its comments
func (pc *PageController) Post(w http.ResponseWriter, r *http.Request) {
	entry, err := pc.entries.BySlug(mux.Vars(r)["slug"])
	if errors.Is(err, content.ErrNoEntry) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load post", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	comments, err := pc.comments.ListComments(ctx, entry.URL())
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("slug", entry.Slug).Msg("failed to load comments")
		comments = nil
	}
	viewCount, err := pc.views.Get(ctx, entry.Slug)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("slug", entry.Slug).Msg("failed to load view count")
	}

	pc.render(w, r, "post", views.Page{
		Title:       entry.Title,
		Description: entry.ImageAlt,
		OGImage:     pc.siteURL + entry.URL() + "/og-image.png",
		Content: struct {
			Entry    *models.BlogEntry
			Comments []*models.Comment
			Views    int64
		}{entry, comments, viewCount},
	})
}

// Tag lists the posts carrying a tag
func (pc *PageController) Tag(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	entries := pc.entries.ByTag(tag)
	if len(entries) == 0 {
		http.NotFound(w, r)
		return
	}
	pc.render(w, r, "tag", views.Page{
		Title: "#" + tag,
		Content: struct {
			Tag     string
			Entries []*models.BlogEntry
		}{tag, entries},
	})
}

// Contact shows the contact form
func (pc *PageController) Contact(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, "contact", views.Page{Title: "Contact"})
}

// Thanks is shown after the contact form was sent
func (pc *PageController) Thanks(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, "thanks", views.Page{Title: "Thanks"})
}

// Login shows the admin login form
func (pc *PageController) Login(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, "login", views.Page{Title: "Log in"})
}

// PageViews is the analytics dashboard
func (pc *PageController) PageViews(w http.ResponseWriter, r *http.Request) {
	q := statsQuery(r)
	if q.Mode != services.ModeURLs {
		q.Mode = services.ModePageViews
	}
	stats, err := pc.pageViews.Stats(r.Context(), q)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to compute page view stats")
		http.Error(w, "Error fetching page views", http.StatusInternalServerError)
		return
	}
	dateRange := q.DateRange
	if dateRange == "" {
		dateRange = "all-time"
	}
	hasNext := stats.TotalPages != nil && int64(q.Page) < *stats.TotalPages

	pc.render(w, r, "page-views", views.Page{
		Title: "Page views",
		Content: struct {
			Stats      *services.Stats
			DateRange  string
			DateRanges []string
			Mode       string
			Search     string
			Page       int
			HasNext    bool
		}{stats, dateRange, dateRanges, q.Mode, q.Search, q.Page, hasNext},
	})
}

// render fills the shared page fields and writes the page. Rendering goes
// to a buffer first so a template error still yields a clean 500.
func (pc *PageController) render(w http.ResponseWriter, r *http.Request, name string, page views.Page) {
	page.Site = pc.siteName
	page.Path = r.URL.Path
	page.User = middleware.UserFromContext(r.Context())

	var buf bytes.Buffer
	if err := pc.templates.Render(&buf, name, page); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
