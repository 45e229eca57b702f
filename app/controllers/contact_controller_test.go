package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"folio/app/services"

	"github.com/stretchr/testify/assert"
)

type stubForwarder struct {
	err  error
	sent []url.Values
}

func (s *stubForwarder) Forward(ctx context.Context, form url.Values) error {
	s.sent = append(s.sent, form)
	return s.err
}

func TestContactFormAlwaysRedirects(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		err  error
		sent int
	}{
		{"valid", url.Values{"email": {"a@example.com"}, "message": {"hi"}}, nil, 1},
		{"missing message", url.Values{"email": {"a@example.com"}}, nil, 0},
		{"forward failure", url.Values{"email": {"a@example.com"}, "message": {"hi"}}, errors.New("down"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := &stubForwarder{err: tt.err}
			cc := NewContactController(services.NewContactService(fwd))

			req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()
			cc.Submit(w, req)

			assert.Equal(t, http.StatusMovedPermanently, w.Code)
			assert.Equal(t, "/contact/thanks", w.Header().Get("Location"))
			assert.Len(t, fwd.sent, tt.sent)
		})
	}
}

func TestContactJSONStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		want   string
	}{
		{"success", `{"email":"a@example.com","message":"hi"}`, nil, http.StatusOK, "success"},
		{"bad email", `{"email":"nope","message":"hi"}`, nil, http.StatusBadRequest, "missingdata"},
		{"bad json", `{`, nil, http.StatusBadRequest, "missingdata"},
		{"forward failure", `{"email":"a@example.com","message":"hi"}`, errors.New("down"), http.StatusBadGateway, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewContactController(services.NewContactService(&stubForwarder{err: tt.err}))

			req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			cc.Submit(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, `{"status":"`+tt.want+`"}`, w.Body.String())
		})
	}
}
