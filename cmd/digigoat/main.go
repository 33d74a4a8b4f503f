package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/digigoat/digigoat-server/auth"
	"github.com/digigoat/digigoat-server/credentials"
	"github.com/digigoat/digigoat-server/internal/config"
	"github.com/digigoat/digigoat-server/notify"
	"github.com/digigoat/digigoat-server/ratelimit"
	"github.com/digigoat/digigoat-server/server"
	"github.com/digigoat/digigoat-server/token"
	"github.com/digigoat/digigoat-server/users/postgres"
)

func main() {
	figure.NewFigure("Digi Goat", "", true).Print()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	db, err := postgres.Open(cfg.Database.DSN())
	if db == nil {
		return err
	}
	if err != nil {
		// Serve anyway; account queries fail until the database returns.
		logger.Warn().Err(err).Msg("database not reachable at startup")
	}
	defer db.Close()

	creds := credentials.NewStore(credentials.WithSweepInterval(cfg.Limits.SweepEvery.Std()))
	creds.Start()
	defer creds.Close()

	limiter := ratelimit.New(cfg.Limits.OTPRequests, cfg.Limits.OTPWindow.Std())
	limiter.Start(cfg.Limits.SweepEvery.Std())
	defer limiter.Close()

	codec, err := token.NewCodec(cfg.JWT.Secret, cfg.JWT.TTL.Std())
	if err != nil {
		return err
	}

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		UseTLS:   cfg.SMTP.UseTLS,
	})

	service, err := auth.NewService(auth.Stores{
		Credentials: creds,
		Limiter:     limiter,
		Users:       postgres.NewStore(db),
		Notifier:    mailer,
		Tokens:      codec,
	}, logger,
		auth.WithFrontendURL(cfg.Server.FrontendURL),
		auth.WithBcryptCost(cfg.Limits.BcryptCost),
	)
	if err != nil {
		return err
	}

	srv, err := server.New(service, logger, server.WithCORSOrigins(cfg.Server.CORSOrigins))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
