package clients

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridSend(t *testing.T) {
	var got sendGridRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewSendGridClient(srv.URL, "sg-key")
	err := c.Send(context.Background(), Mail{
		To:      Address{Email: "owner@example.com", Name: "Owner"},
		From:    Address{Email: "info@example.com"},
		ReplyTo: Address{Email: "info@example.com", Name: "Info"},
		Subject: "New comment on /blog/hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "owner@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "New comment on /blog/hello", got.Subject)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "Info", got.ReplyTo.Name)
	assert.Equal(t, []sendGridContent{{Type: "text/html", Value: "<p>hi</p>"}}, got.Content)
}

func TestSendGridNotConfigured(t *testing.T) {
	c := NewSendGridClient("http://127.0.0.1:1", "")
	assert.ErrorIs(t, c.Send(context.Background(), Mail{}), ErrNotConfigured)
}

func TestSendGridErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewSendGridClient(srv.URL, "k").Send(context.Background(), Mail{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestFormspreeForward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "a@example.com", r.PostForm.Get("email"))
		assert.Equal(t, "hello", r.PostForm.Get("message"))
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	form := url.Values{"email": {"a@example.com"}, "message": {"hello"}}
	assert.NoError(t, NewFormspreeClient(srv.URL).Forward(context.Background(), form))
}

func TestFormspreeNotConfigured(t *testing.T) {
	assert.ErrorIs(t, NewFormspreeClient("").Forward(context.Background(), url.Values{}), ErrNotConfigured)
}

func TestAlgoliaPartialUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/indexes/site/blog%2Fhello/partial", r.URL.EscapedPath())
		assert.Equal(t, "true", r.URL.Query().Get("createIfNotExists"))
		assert.Equal(t, "APP", r.Header.Get("X-Algolia-Application-Id"))
		assert.Equal(t, "key", r.Header.Get("X-Algolia-API-Key"))

		var attrs map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&attrs))
		assert.Equal(t, "hello world", attrs["content"])
		_, _ = io.WriteString(w, `{"objectID":"blog/hello"}`)
	}))
	defer srv.Close()

	c := NewAlgoliaClient(srv.URL, "APP", "key", "site")
	err := c.PartialUpdate(context.Background(), "blog/hello", map[string]any{"content": "hello world"})
	assert.NoError(t, err)
}

func TestAlgoliaEndpointTemplate(t *testing.T) {
	c := NewAlgoliaClient("https://%s.algolia.net", "MYAPP", "k", "i")
	assert.Equal(t, "https://myapp.algolia.net", c.baseURL)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewFormspreeClient(srv.URL)
	for i := 0; i < breakerFailureThreshold; i++ {
		assert.Error(t, c.Forward(context.Background(), url.Values{}))
	}
	assert.Equal(t, "open", c.breaker.State())

	err := c.Forward(context.Background(), url.Values{})
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(breakerFailureThreshold), atomic.LoadInt32(&calls))
}
