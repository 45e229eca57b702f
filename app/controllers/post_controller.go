package controllers

import (
	"net/http"

	"folio/app/logging"
	"folio/app/services"
)

// PostController bumps the view and like counters of blog posts. The post
// is identified by the Referer of the request.
type PostController struct {
	counters *services.PostCounterService
}

func NewPostController(counters *services.PostCounterService) *PostController {
	return &PostController{counters: counters}
}

// UpdateViewCount increments the view counter of the referring post
func (pc *PostController) UpdateViewCount(w http.ResponseWriter, r *http.Request) {
	if _, err := pc.counters.IncrementViews(r.Context(), r.Referer()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to update view count")
		sendError(w, r, "Error updating views", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateLikeCount increments the like counter of the referring post
func (pc *PostController) UpdateLikeCount(w http.ResponseWriter, r *http.Request) {
	if _, err := pc.counters.IncrementLikes(r.Context(), r.Referer()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to update like count")
		sendError(w, r, "Error updating likes", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
