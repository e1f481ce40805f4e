package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/mehmetcc/people/internal/config"
	"github.com/mehmetcc/people/internal/database"
	"github.com/mehmetcc/people/internal/httpx"
	"github.com/mehmetcc/people/internal/person"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	// init logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
	logger.Info("application stopped")
}

func run(ctx context.Context, logger *zap.Logger) (err error) {
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		return err
	}

	// load database
	provider, err := database.Open(ctx, cfg.DbConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, provider.Close())
	}()

	// run migrations
	if cfg.DbConfig.Migrate {
		if _, err := provider.Migrate(ctx); err != nil {
			return err
		}
	}

	personRepo := person.NewPersonRepository(logger.Named("person.repository"))
	personService := person.NewPersonService(provider, personRepo, logger.Named("person.service"))
	personHandler := person.NewPersonHandler(personService, cfg.AppConfig, logger.Named("person.handler"))

	router := httpx.NewRouter(logger, cfg.AppConfig, provider, httpx.Mount{
		Pattern: "/people",
		Handler: personHandler.Routes(),
	})

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.AppConfig.Port),
		Handler:      router,
		ReadTimeout:  cfg.AppConfig.ReadTimeout,
		WriteTimeout: cfg.AppConfig.WriteTimeout,
		IdleTimeout:  cfg.AppConfig.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("application started",
			zap.String("addr", srv.Addr),
			zap.String("unit", provider.Unit()),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppConfig.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
