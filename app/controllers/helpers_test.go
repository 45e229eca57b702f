package controllers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"folio/app/content"
	"folio/app/models"
	"folio/app/repositories/mock"
	"folio/app/services"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

var testEntries = []*models.BlogEntry{
	{
		Slug:  "hello-world",
		Title: "Hello world",
		Tags:  []string{"go", "web"},
		Date:  time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		HTML:  "<p>Hello from the <em>blog</em></p>",
	},
	{
		Slug:  "second",
		Title: "Second post",
		Tags:  []string{"go"},
		Date:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		HTML:  "<p>second</p>",
	},
	{
		Slug:  "wip",
		Title: "Work in progress",
		Tags:  []string{},
		Date:  time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		Draft: true,
	},
}

// fixture holds the services behind every controller, backed by mocks.
type fixture struct {
	posts     *mock.PostRepository
	comments  *mock.CommentRepository
	pageViews *mock.PageViewRepository
	kv        *mock.KVStore

	entries        *content.Collection
	commentService *services.CommentService
	pageViewSvc    *services.PageViewService
	counter        *services.ViewCounterService
	postCounters   *services.PostCounterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	posts := mock.NewPostRepository()
	comments := mock.NewCommentRepository(posts)
	pageViews := mock.NewPageViewRepository()
	kv := mock.NewKVStore()
	return &fixture{
		posts:          posts,
		comments:       comments,
		pageViews:      pageViews,
		kv:             kv,
		entries:        content.NewCollection(testEntries),
		commentService: services.NewCommentService(comments, posts, nil),
		pageViewSvc: services.NewPageViewService(pageViews, services.PageViewConfig{
			UntrackedURLs: []string{"/page-views"},
		}),
		counter:      services.NewViewCounterService(kv, 24*time.Hour),
		postCounters: services.NewPostCounterService(posts, false),
	}
}

func (f *fixture) addComment(t *testing.T, author, text, blogURL string) *models.Comment {
	t.Helper()
	c, err := f.commentService.CreateComment(context.Background(), author, text, blogURL)
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
