package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"folio/app/logging"
	"folio/app/repositories"
	"folio/app/services"

	"github.com/gorilla/mux"
)

// CommentController handles HTTP requests for comments
type CommentController struct {
	commentService *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService *services.CommentService) *CommentController {
	return &CommentController{commentService: commentService}
}

type createCommentRequest struct {
	Author  string `json:"author"`
	Comment string `json:"comment"`
	BlogURL string `json:"blogUrl"`
}

// Index lists the comments of the post given by the blogUrl query parameter
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	comments, err := cc.commentService.ListComments(r.Context(), r.URL.Query().Get("blogUrl"))
	if errors.Is(err, services.ErrMissingBlogURL) {
		sendError(w, r, "Missing blogUrl", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to list comments")
		sendError(w, r, "Failed to fetch comments", http.StatusInternalServerError)
		return
	}
	sendJSON(w, r, http.StatusOK, comments)
}

// Create handles creating a new comment from JSON or a form post
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	form := !isJSON(r)
	if form {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			sendError(w, r, "Failed to parse form", http.StatusBadRequest)
			return
		}
		req.Author = r.FormValue("author")
		req.Comment = r.FormValue("comment")
		req.BlogURL = r.FormValue("blogUrl")
	} else if err := decodeJSON(r, &req); err != nil {
		sendError(w, r, "Invalid JSON", http.StatusBadRequest)
		return
	}

	comment, err := cc.commentService.CreateComment(r.Context(), req.Author, req.Comment, req.BlogURL)
	if errors.Is(err, services.ErrInvalidComment) {
		sendError(w, r, "Missing required fields", http.StatusBadRequest)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("blog_url", req.BlogURL).Msg("failed to create comment")
		sendError(w, r, "Failed to create comment", http.StatusInternalServerError)
		return
	}

	if form && !wantsJSON(r) {
		http.Redirect(w, r, localRedirect(req.BlogURL, "/blog"), http.StatusSeeOther)
		return
	}
	sendJSON(w, r, http.StatusOK, comment)
}

// Delete handles deleting a comment
func (cc *CommentController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendError(w, r, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	if err := cc.commentService.DeleteComment(r.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendError(w, r, "Comment not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("comment_id", id).Msg("failed to delete comment")
		sendError(w, r, "Failed to delete comment", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// localRedirect returns target when it is a path on this site, otherwise
// fallback.
func localRedirect(target, fallback string) string {
	target = strings.TrimSpace(target)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return target
}
