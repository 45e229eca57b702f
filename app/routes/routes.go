package routes

import (
	"net/http"
	"time"

	"folio/app/content"
	"folio/app/controllers"
	"folio/app/middleware"
	"folio/app/services"
	"folio/app/views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the HTTP-level settings of the router.
type Config struct {
	SiteName          string
	SiteURL           string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CookieName        string
	SecureCookies     bool
}

// Services are the application services the routes dispatch to.
type Services struct {
	Entries      *content.Collection
	Templates    views.Templates
	Comments     *services.CommentService
	PageViews    *services.PageViewService
	ViewCounter  *services.ViewCounterService
	PostCounters *services.PostCounterService
	Contact      *services.ContactService
	Auth         *services.AuthService
	OG           *services.OGImageService
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(cfg Config, svc Services) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger)
	router.Use(middleware.Prometheus)

	pageController := controllers.NewPageController(controllers.PageConfig{
		Entries:   svc.Entries,
		Templates: svc.Templates,
		Comments:  svc.Comments,
		Views:     svc.ViewCounter,
		PageViews: svc.PageViews,
		SiteName:  cfg.SiteName,
		SiteURL:   cfg.SiteURL,
	})
	feedController := controllers.NewFeedController(svc.Entries, cfg.SiteName, cfg.SiteURL)
	ogController := controllers.NewOGController(svc.OG, svc.Entries)
	commentController := controllers.NewCommentController(svc.Comments)
	pageViewController := controllers.NewPageViewController(svc.PageViews)
	viewController := controllers.NewViewController(svc.ViewCounter)
	postController := controllers.NewPostController(svc.PostCounters)
	contactController := controllers.NewContactController(svc.Contact)
	authController := controllers.NewAuthController(svc.Auth, cfg.CookieName, cfg.SecureCookies)

	admin := middleware.AdminAuth(svc.Auth, cfg.CookieName)
	limit := middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)

	router.HandleFunc("/healthz", controllers.Health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Web routes
	router.HandleFunc("/", pageController.Home).Methods("GET")
	router.HandleFunc("/blog", pageController.Blog).Methods("GET")
	router.HandleFunc("/blog/tags/{tag}", pageController.Tag).Methods("GET")
	router.HandleFunc("/blog/{slug}/og-image.png", ogController.PostImage).Methods("GET")
	router.HandleFunc("/blog/{slug}", pageController.Post).Methods("GET")
	router.HandleFunc("/contact", pageController.Contact).Methods("GET")
	router.HandleFunc("/contact/thanks", pageController.Thanks).Methods("GET")
	router.HandleFunc("/login", pageController.Login).Methods("GET")
	router.Handle("/page-views", admin(http.HandlerFunc(pageController.PageViews))).Methods("GET")
	router.HandleFunc("/rss.xml", feedController.RSS).Methods("GET")
	router.HandleFunc("/sitemap.xml", feedController.Sitemap).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.CORS(cfg.CORSOrigins))

	// Comments API endpoints
	api.HandleFunc("/comments", commentController.Index).Methods("GET")
	api.HandleFunc("/comments/list", commentController.Index).Methods("GET")
	api.Handle("/comments", limit(http.HandlerFunc(commentController.Create))).Methods("POST")
	api.Handle("/comments/create", limit(http.HandlerFunc(commentController.Create))).Methods("POST")
	api.Handle("/comments/{id:[0-9]+}", admin(http.HandlerFunc(commentController.Delete))).Methods("DELETE")

	// Analytics endpoints
	api.HandleFunc("/update-view", pageViewController.UpdateView).Methods("POST")
	api.HandleFunc("/view-count", pageViewController.ViewCount).Methods("GET")
	api.Handle("/page-views", admin(http.HandlerFunc(pageViewController.Stats))).Methods("GET")
	api.HandleFunc("/view", viewController.Handle)
	api.HandleFunc("/blogs/update-view-count", postController.UpdateViewCount).Methods("GET")
	api.HandleFunc("/blogs/update-like-count", postController.UpdateLikeCount).Methods("GET")

	api.Handle("/contact", limit(http.HandlerFunc(contactController.Submit))).Methods("POST")
	api.HandleFunc("/og", ogController.Image).Methods("GET")
	api.Handle("/login", limit(http.HandlerFunc(authController.Login))).Methods("POST")
	api.HandleFunc("/logout", authController.Logout).Methods("POST")

	// Lets CORS preflight requests reach the middleware.
	api.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return router
}
