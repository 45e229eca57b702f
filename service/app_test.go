package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppServesBlog(t *testing.T) {
	cfg := setupTestConfig(t)
	blog := filepath.Join(cfg.Content.Dir, "blog")
	require.NoError(t, os.MkdirAll(blog, 0o755))
	post := "---\ntitle: Hello world\ntags: [go]\ndate: 2024-02-01T10:00:00Z\n---\nHi there.\n"
	require.NoError(t, os.WriteFile(filepath.Join(blog, "hello.md"), []byte(post), 0o644))

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/blog/hello")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Hello world")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunServerGracefulShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	started := make(chan struct{})
	srv := &http.Server{
		Addr: fmt.Sprintf("localhost:%d", port),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	// The listener comes up asynchronously.
	var resp *http.Response
	respErr := make(chan error, 1)
	go func() {
		var err error
		for i := 0; i < 50; i++ {
			resp, err = http.Get(fmt.Sprintf("http://localhost:%d/", port))
			if err == nil {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		respErr <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the request")
	}
	cancel()

	require.NoError(t, <-respErr)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "in-flight request completes")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runServer did not return after cancel")
	}
}
