// Command server runs the reservation console.
//
// @title        Reservation Console
// @version      1.0
// @description  Server-side console for vehicle reservations and support tickets.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/reservation-console/internal/api"
	"github.com/99minutos/reservation-console/internal/api/middleware"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/screen"
	"github.com/99minutos/reservation-console/internal/infrastructure/backend"
	"github.com/99minutos/reservation-console/internal/infrastructure/db/file"
	"github.com/99minutos/reservation-console/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/reservation-console/internal/infrastructure/db/mongo"
	redisstore "github.com/99minutos/reservation-console/internal/infrastructure/db/redis"
	"github.com/99minutos/reservation-console/internal/pkg/config"
	"github.com/99minutos/reservation-console/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "reservation-console",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("console stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, logger.Component("storage"))
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := backend.New(backend.Config{BaseURL: cfg.Backend.URL, Timeout: cfg.Backend.Timeout}, logger.Component("backend"))
	if err != nil {
		return err
	}

	registry := screen.NewRegistry(logger.Component("screens"))
	e := api.NewRouter(api.Deps{
		Storage:  store,
		Backend:  client,
		Registry: registry,
		Session: middleware.SessionConfig{
			Cookie: cfg.Session.Cookie,
			Secure: cfg.Session.Secure,
			MaxAge: cfg.Storage.TTL,
		},
		PollInterval: cfg.Screens.PollInterval,
		Log:          log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		registry.Run(gctx, cfg.Screens.SweepInterval, cfg.Screens.IdleTimeout)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend.URL).Str("storage", cfg.Storage.Driver).Msg("console listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStorage connects the visitor storage driver named in the config.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.KeyValueStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		s, err := file.Open(cfg.Storage.File)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.Storage.File).Msg("file storage ready")
		return s, func() {}, nil

	case config.StorageRedis:
		s, err := redisstore.Open(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			Timeout:   cfg.Storage.Timeout,
			TTL:       cfg.Storage.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis storage ready")
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close")
			}
		}, nil

	case config.StorageMongo:
		s, err := mongostore.Open(ctx, mongostore.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Timeout:    cfg.Storage.Timeout,
			TTL:        cfg.Storage.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Str("collection", cfg.Mongo.Collection).Msg("mongo storage ready")
		return s, func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}, nil

	default:
		log.Warn().Msg("memory storage: sessions are lost on restart")
		return memory.NewStore(), func() {}, nil
	}
}
