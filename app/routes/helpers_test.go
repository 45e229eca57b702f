package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"folio/app/clients"
	"folio/app/content"
	"folio/app/models"
	"folio/app/repositories"
	"folio/app/services"
	"folio/app/views"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

const (
	testCookie   = "folio_session"
	testUser     = "admin"
	testPassword = "correct horse"
)

// testApp is a router wired to in-memory SQLite and badger stores.
type testApp struct {
	router *mux.Router
	auth   *services.AuthService
	forms  *httptest.Server
	posted int
}

func setupTestRouter(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repositories.OpenDB("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.Migrate(ctx, db))

	kv, err := repositories.NewBadgerStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	app := &testApp{}
	app.forms = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.posted++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(app.forms.Close)

	postRepo := repositories.NewBunPostRepository(db)
	commentRepo := repositories.NewBunCommentRepository(db)
	pageViewRepo := repositories.NewBunPageViewRepository(db)

	app.auth = services.NewAuthService(repositories.NewBunAccountRepository(db), "route-secret", time.Hour)
	_, err = app.auth.CreateAccount(ctx, testUser, testPassword)
	require.NoError(t, err)

	og, err := services.NewOGImageService("My blog", "")
	require.NoError(t, err)

	entries := content.NewCollection([]*models.BlogEntry{
		{Slug: "hello-world", Title: "Hello world", Tags: []string{"go"}, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), HTML: "<p>hi</p>"},
	})

	app.router = SetupRoutes(Config{
		SiteName:          "My blog",
		SiteURL:           "https://example.com",
		CORSOrigins:       []string{"https://example.com"},
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		CookieName:        testCookie,
	}, Services{
		Entries:      entries,
		Templates:    views.MustLoad(),
		Comments:     services.NewCommentService(commentRepo, postRepo, nil),
		PageViews:    services.NewPageViewService(pageViewRepo, services.PageViewConfig{UntrackedURLs: []string{"/page-views"}}),
		ViewCounter:  services.NewViewCounterService(kv, 24*time.Hour),
		PostCounters: services.NewPostCounterService(postRepo, false),
		Contact:      services.NewContactService(clients.NewFormspreeClient(app.forms.URL)),
		Auth:         app.auth,
		OG:           og,
	})
	return app
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// adminCookie logs in and returns the session cookie.
func (a *testApp) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := a.auth.Login(context.Background(), testUser, testPassword)
	require.NoError(t, err)
	return &http.Cookie{Name: testCookie, Value: token}
}
