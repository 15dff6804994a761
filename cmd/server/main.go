// Package main initializes and starts the storefront API server, setting up
// configuration, logging, database connections, repositories, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/db"
	"github.com/atinyakov/storefront/internal/logger"
	"github.com/atinyakov/storefront/internal/mail"
	"github.com/atinyakov/storefront/internal/payment"
	"github.com/atinyakov/storefront/internal/repository"
	"github.com/atinyakov/storefront/internal/server/handler/http"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/session"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Periodically drop expired password reset tokens.
	db.StartResetTokenCleaner(ctx, postgresDB, options.ResetCleanupInterval, zapLogger)

	// Repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	itemRepo := repository.NewPostgresItemRepository(postgresDB)
	cartRepo := repository.NewPostgresCartRepository(postgresDB)
	orderRepo := repository.NewPostgresOrderRepository(postgresDB)

	// Collaborators.
	var mailer mail.Sender
	if options.MailQueue {
		queue := asynq.NewClient(asynq.RedisClientOpt{Addr: options.RedisAddr})
		defer queue.Close()
		mailer = mail.NewQueueSender(queue, zapLogger)
	} else {
		smtpSender, err := mail.NewSMTPSender(options.SMTPHost, options.SMTPPort, options.SMTPUser, options.SMTPPass)
		if err != nil {
			zapLogger.Fatal("cannot init mailer", zap.Error(err))
		}
		mailer = smtpSender
	}
	gateway := payment.NewStripeGateway(options.StripeSecret, options.StripeURL)

	sessions, err := session.NewManager(options.AppSecret, options.CookieSecure)
	if err != nil {
		zapLogger.Fatal("cannot init sessions", zap.Error(err))
	}

	// Business-logic services.
	authService := service.NewAuthService(userRepo, mailer, service.AuthConfig{
		MailFrom:    options.MailFrom,
		FrontendURL: options.FrontendURL,
	}, zapLogger)
	itemService := service.NewItemService(itemRepo, userRepo, zapLogger)
	cartService := service.NewCartService(cartRepo, itemRepo, userRepo, zapLogger)
	orderService := service.NewOrderService(orderRepo, cartRepo, userRepo, gateway, options.Currency, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(http.RouterConfig{
		Auth:        &http.AuthHandler{AuthService: authService, Sessions: sessions, Log: zapLogger},
		Items:       &http.ItemHandler{ItemService: itemService, Log: zapLogger},
		Cart:        &http.CartHandler{CartService: cartService, Log: zapLogger},
		Orders:      &http.OrderHandler{OrderService: orderService, Log: zapLogger},
		Verifier:    sessions,
		DB:          postgresDB,
		FrontendURL: options.FrontendURL,
		Production:  options.TLSEnabled() || options.CookieSecure,
		Logger:      zapLogger,
	})

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSEnabled() {
			server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
