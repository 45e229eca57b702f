package controllers

import (
	"io"
	"net/http"
	"strings"

	"folio/app/logging"

	"github.com/goccy/go-json"
)

// maxBodyBytes caps JSON and form request bodies.
const maxBodyBytes = 1 << 20

// wantsJSON reports whether the client expects a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.URL.Path, "/api/") && !isForm(r)
}

// isJSON reports whether the request body is JSON.
func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func sendJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to encode response")
	}
}

func sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if wantsJSON(r) {
		sendJSON(w, r, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

// sendMessage writes a {"message": ...} body.
func sendMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	sendJSON(w, r, status, map[string]string{"message": message})
}

// Health reports that the server is up.
func Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
