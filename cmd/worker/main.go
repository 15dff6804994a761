// Package main runs the background worker that delivers queued mail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/storefront/internal/config"
	"github.com/atinyakov/storefront/internal/logger"
	"github.com/atinyakov/storefront/internal/mail"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	smtpSender, err := mail.NewSMTPSender(options.SMTPHost, options.SMTPPort, options.SMTPUser, options.SMTPPass)
	if err != nil {
		zapLogger.Fatal("cannot init mailer", zap.Error(err))
	}
	mux := mail.NewServeMux(mail.NewTaskHandler(smtpSender, zapLogger))

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: options.RedisAddr}, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{mail.QueueDefault: 1},
		Logger:      zapLogger.Sugar(),
	})

	zapLogger.Info("starting mail worker", zap.String("redis", options.RedisAddr))
	if err := srv.Start(mux); err != nil {
		zapLogger.Fatal("cannot start worker", zap.Error(err))
	}

	<-ctx.Done()
	zapLogger.Info("shutting down worker")
	srv.Shutdown()
}
