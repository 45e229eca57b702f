package controllers

import (
	"errors"
	"net/http"

	"folio/app/logging"
	"folio/app/middleware"
	"folio/app/services"
)

// ViewController serves the per-slug view counter kept in the KV store
type ViewController struct {
	counter *services.ViewCounterService
}

func NewViewController(counter *services.ViewCounterService) *ViewController {
	return &ViewController{counter: counter}
}

type viewRequest struct {
	Slug string `json:"slug"`
}

// Handle counts a view on POST and returns the count on GET.
func (vc *ViewController) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		vc.increment(w, r)
	case http.MethodGet:
		vc.get(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		sendError(w, r, "use POST", http.StatusMethodNotAllowed)
	}
}

func (vc *ViewController) increment(w http.ResponseWriter, r *http.Request) {
	if !isJSON(r) {
		sendError(w, r, "must be json", http.StatusBadRequest)
		return
	}
	var req viewRequest
	if err := decodeJSON(r, &req); err != nil {
		sendError(w, r, "must be json", http.StatusBadRequest)
		return
	}

	counted, err := vc.counter.Increment(r.Context(), req.Slug, middleware.ClientIP(r))
	if errors.Is(err, services.ErrMissingSlug) {
		sendError(w, r, "Slug not found", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", req.Slug).Msg("failed to count view")
		sendError(w, r, "Error updating views", http.StatusInternalServerError)
		return
	}
	sendJSON(w, r, http.StatusAccepted, map[string]any{"slug": req.Slug, "counted": counted})
}

func (vc *ViewController) get(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	count, err := vc.counter.Get(r.Context(), slug)
	if errors.Is(err, services.ErrMissingSlug) {
		sendError(w, r, "Slug not found", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", slug).Msg("failed to read view count")
		sendError(w, r, "Error fetching views", http.StatusInternalServerError)
		return
	}
	sendJSON(w, r, http.StatusOK, map[string]any{"slug": slug, "count": count})
}
