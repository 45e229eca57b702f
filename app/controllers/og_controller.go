package controllers

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"folio/app/content"
	"folio/app/logging"
	"folio/app/services"

	"github.com/gorilla/mux"
)

const (
	maxPostTitleRunes  = 200
	maxQueryTitleRunes = 100
)

// OGController serves generated Open Graph preview images
type OGController struct {
	og      *services.OGImageService
	entries *content.Collection
}

func NewOGController(og *services.OGImageService, entries *content.Collection) *OGController {
	return &OGController{og: og, entries: entries}
}

// PostImage renders the preview of a blog post.
func (oc *OGController) PostImage(w http.ResponseWriter, r *http.Request) {
	entry, err := oc.entries.BySlug(mux.Vars(r)["slug"])
	if errors.Is(err, content.ErrNoEntry) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		sendError(w, r, "Failed to load post", http.StatusInternalServerError)
		return
	}
	oc.render(w, r, truncateRunes(entry.Title, maxPostTitleRunes))
}

// Image renders a preview for the title query parameter.
func (oc *OGController) Image(w http.ResponseWriter, r *http.Request) {
	oc.render(w, r, truncateRunes(r.URL.Query().Get("title"), maxQueryTitleRunes))
}

func (oc *OGController) render(w http.ResponseWriter, r *http.Request, title string) {
	img, err := oc.og.Render(title)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("title", title).Msg("failed to render og image")
		sendError(w, r, "Failed to generate the image", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(img)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
