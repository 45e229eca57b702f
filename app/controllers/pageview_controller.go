package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"folio/app/logging"
	"folio/app/services"
)

// PageViewController records page views and serves their analytics
type PageViewController struct {
	pageViews *services.PageViewService
}

func NewPageViewController(pageViews *services.PageViewService) *PageViewController {
	return &PageViewController{pageViews: pageViews}
}

type updateViewRequest struct {
	URL string `json:"url"`
}

// UpdateView records one view of the URL in the request body.
func (pc *PageViewController) UpdateView(w http.ResponseWriter, r *http.Request) {
	var req updateViewRequest
	// an unreadable body counts as a missing URL
	if err := decodeJSON(r, &req); err != nil {
		req.URL = ""
	}

	err := pc.pageViews.Record(r.Context(), req.URL, r.UserAgent())
	switch {
	case err == nil:
		sendMessage(w, r, http.StatusOK, "Successfully updated views")
	case errors.Is(err, services.ErrBotRequest):
		sendError(w, r, "This endpoint is not available for bots", http.StatusBadRequest)
	case errors.Is(err, services.ErrMissingURL):
		sendError(w, r, "Missing URL", http.StatusBadRequest)
	case errors.Is(err, services.ErrDisabled):
		sendError(w, r, "View tracking is disabled in development", http.StatusBadRequest)
	case errors.Is(err, services.ErrUntrackedURL):
		sendMessage(w, r, http.StatusAccepted, "This url is not tracked")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("url", req.URL).Msg("failed to record page view")
		sendError(w, r, "Error updating views", http.StatusInternalServerError)
	}
}

// ViewCount returns the number of views of the url query parameter.
func (pc *PageViewController) ViewCount(w http.ResponseWriter, r *http.Request) {
	count, err := pc.pageViews.Count(r.Context(), r.URL.Query().Get("url"), r.UserAgent())
	switch {
	case errors.Is(err, services.ErrBotRequest):
		sendError(w, r, "This endpoint is not available for bots", http.StatusBadRequest)
		return
	case errors.Is(err, services.ErrMissingURL):
		sendError(w, r, "Missing URL", http.StatusBadRequest)
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to count page views")
		sendError(w, r, "Error fetching views", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "s-maxage=3600, stale-while-revalidate")
	sendJSON(w, r, http.StatusOK, map[string]int64{"count": count})
}

// Stats returns the page view aggregation selected by the query string.
func (pc *PageViewController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := pc.pageViews.Stats(r.Context(), statsQuery(r))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to compute page view stats")
		sendError(w, r, "Error fetching page views", http.StatusInternalServerError)
		return
	}
	sendJSON(w, r, http.StatusOK, stats)
}

// statsQuery reads date-range, page, search and mode from the query string.
func statsQuery(r *http.Request) services.StatsQuery {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return services.StatsQuery{
		DateRange: q.Get("date-range"),
		Page:      page,
		Search:    q.Get("search"),
		Mode:      q.Get("mode"),
	}
}
