package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"folio/app/clients"
	"folio/app/config"
	"folio/app/content"
	"folio/app/events"
	"folio/app/logging"
	"folio/app/repositories"
	"folio/app/routes"
	"folio/app/services"
	"folio/app/views"

	"github.com/gorilla/mux"
	"github.com/uptrace/bun"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled blog: stores, content, services and the router.
type App struct {
	Config  *config.Config
	DB      *bun.DB
	KV      *repositories.BadgerStore
	Entries *content.Collection
	Bus     *events.Bus
	Auth    *services.AuthService
	Router  *mux.Router

	cancel context.CancelFunc
}

// NewApp opens the stores, loads the content and wires every service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := repositories.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	kv, err := repositories.NewBadgerStore(cfg.KV.Path, cfg.KV.InMemory)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{Config: cfg, DB: db, KV: kv}
	if err := app.wire(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	entries, err := content.Load(cfg.Content.Dir)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	a.Entries = entries
	logging.Info().Int("posts", len(entries.Published())).Str("dir", cfg.Content.Dir).Msg("content loaded")

	templates, err := views.Load()
	if err != nil {
		return err
	}

	og, err := services.NewOGImageService(cfg.OG.SiteName, cfg.OG.AvatarPath)
	if err != nil {
		return err
	}

	a.Bus = events.NewBus()
	subCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if cfg.Email.SendGridAPIKey != "" && cfg.Email.To != "" {
		mailer := clients.NewSendGridClient(cfg.Email.SendGridURL, cfg.Email.SendGridAPIKey)
		notifier := services.NewNotifier(mailer, services.NotifierConfig{
			To:   clients.Address{Email: cfg.Email.To, Name: cfg.Email.ToName},
			From: clients.Address{Email: cfg.Email.From, Name: cfg.Email.FromName},
		})
		if err := notifier.Start(subCtx, a.Bus); err != nil {
			return err
		}
	} else {
		logging.Warn().Msg("SendGrid is not configured; comment notifications are disabled")
	}

	postRepo := repositories.NewBunPostRepository(a.DB)
	commentRepo := repositories.NewBunCommentRepository(a.DB)
	pageViewRepo := repositories.NewBunPageViewRepository(a.DB)
	a.Auth = services.NewAuthService(repositories.NewBunAccountRepository(a.DB), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	rateLimit := cfg.Security.RateLimitRequests
	if cfg.Security.RateLimitDisabled {
		rateLimit = 0
	}

	a.Router = routes.SetupRoutes(routes.Config{
		SiteName:          cfg.OG.SiteName,
		SiteURL:           cfg.Server.Site,
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: rateLimit,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		CookieName:        cfg.Auth.CookieName,
		SecureCookies:     !cfg.IsDevelopment(),
	}, routes.Services{
		Entries:   entries,
		Templates: templates,
		Comments:  services.NewCommentService(commentRepo, postRepo, a.Bus),
		PageViews: services.NewPageViewService(pageViewRepo, services.PageViewConfig{
			Development:   cfg.IsDevelopment(),
			UntrackedURLs: cfg.Analytics.UntrackedURLs,
			Epoch:         cfg.AnalyticsEpoch(),
			PageSize:      cfg.Analytics.PageSize,
		}),
		ViewCounter:  services.NewViewCounterService(a.KV, cfg.KV.DedupTTL),
		PostCounters: services.NewPostCounterService(postRepo, cfg.IsDevelopment()),
		Contact:      services.NewContactService(clients.NewFormspreeClient(cfg.Contact.FormspreeURL)),
		Auth:         a.Auth,
		OG:           og,
	})
	return nil
}

// Close stops event delivery and closes the stores.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

// RunAppServer serves the blog until SIGINT or SIGTERM, then shuts down
// gracefully.
func RunAppServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Error().Err(err).Msg("shutdown error")
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.Router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return runServer(ctx, server)
}

// runServer serves until ctx is cancelled or the listener fails, then
// drains in-flight requests.
func runServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("starting blog server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logging.Info().Msg("server stopped gracefully")
	return nil
}
