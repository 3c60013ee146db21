package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/mailer"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run schema migrations before serving")
	return cmd
}

func serve(parent context.Context, migrate bool) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error("db_close_failed", "error", err)
		}
	}()

	store := &repo.GormRepo{DB: gdb}
	if migrate {
		if err := store.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var events service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error("kafka_close_failed", "error", err)
			}
		}()
		events = prod
	} else {
		log.Warn("kafka_disabled", "reason", "KAFKA_BROKERS not set")
	}

	var index service.ProductSearcher
	if cfg.ESURL != "" {
		ix, err := search.NewProductIndex(ctx, search.Config{
			Addresses: config.CSV(cfg.ESURL),
			Username:  cfg.ESUser,
			Password:  cfg.ESPassword,
			Index:     cfg.ESIndex,
		})
		if err != nil {
			log.Warn("search_index_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			index = ix
		}
	}

	var sender mailer.Sender = mailer.LogSender{Logger: log}
	if cfg.SendGridAPIKey != "" {
		sender = mailer.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	}
	notifier := mailer.New(sender)

	var gateway service.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.PaymentCurrency, nil)
	} else {
		log.Warn("payments_disabled", "reason", "STRIPE_SECRET_KEY not set")
	}

	m := metrics.New()
	authSvc := &service.AuthService{
		Repo: store,
		Tokens: service.TokenSettings{
			AccessSecret:  cfg.JWTAccessSecret,
			RefreshSecret: cfg.JWTRefreshSecret,
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
			ResetTTL:      cfg.ResetTokenTTL,
		},
		Mailer:  notifier,
		Events:  events,
		BaseURL: cfg.BaseURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpserver.NewValidator()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Secure(),
		loggingmw.RequestLogger(log),
		m.Middleware(),
		middleware.CORS(),
	)

	httpserver.Register(e, &httpserver.Deps{
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: store, Index: index, Events: events}},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: store, Events: events, Metrics: m}},
		Order:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: store, Events: events, Metrics: m}},
		Wishlist: &httpserver.WishlistHTTP{Svc: &service.WishlistService{
			Repo: store, Events: events, Metrics: m,
		}},
		Payment: &httpserver.PaymentHTTP{Svc: &service.PaymentService{
			Repo:       store,
			Gateway:    gateway,
			Mailer:     notifier,
			Events:     events,
			Metrics:    m,
			SuccessURL: cfg.PaymentSuccessURL,
			FailURL:    cfg.PaymentFailURL,
		}},
		Bearer:  authmw.NewBearerAuth(cfg.JWTAccessSecret, authSvc),
		Metrics: m,
		Ready:   store.Ping,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http_shutdown_failed", "error", err)
	}
	log.Info("shutdown_complete")
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
