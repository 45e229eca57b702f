package controllers

import (
	"errors"
	"net/http"
	"time"

	"folio/app/logging"
	"folio/app/services"
)

// AuthController signs administrators in
type AuthController struct {
	auth       *services.AuthService
	cookieName string
	secure     bool
}

// NewAuthController creates the controller. secure marks the session
// cookie Secure and should be set outside development.
func NewAuthController(auth *services.AuthService, cookieName string, secure bool) *AuthController {
	return &AuthController{auth: auth, cookieName: cookieName, secure: secure}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the credentials, sets the session cookie and sends the
// browser home.
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSON(r) {
		if err := decodeJSON(r, &req); err != nil {
			sendError(w, r, "Login failed", http.StatusBadRequest)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			sendError(w, r, "Login failed", http.StatusBadRequest)
			return
		}
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}

	token, err := ac.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("login error")
		}
		sendError(w, r, "Login failed", http.StatusBadRequest)
		return
	}

	ttl := ac.auth.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     ac.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   ac.secure,
		SameSite: http.SameSiteLaxMode,
	})
	logging.Ctx(r.Context()).Info().Str("user", req.Username).Msg("admin logged in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session cookie.
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ac.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ac.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
