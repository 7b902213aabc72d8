package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-schedule-api/internal/config"
	"github.com/iliyamo/cinema-schedule-api/internal/database"
	"github.com/iliyamo/cinema-schedule-api/internal/handler"
	"github.com/iliyamo/cinema-schedule-api/internal/logger"
	"github.com/iliyamo/cinema-schedule-api/internal/middleware"
	"github.com/iliyamo/cinema-schedule-api/internal/queue"
	"github.com/iliyamo/cinema-schedule-api/internal/repository"
	"github.com/iliyamo/cinema-schedule-api/internal/repository/gormstore"
	"github.com/iliyamo/cinema-schedule-api/internal/repository/memory"
	"github.com/iliyamo/cinema-schedule-api/internal/router"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine

	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	movies, schedules, closeStore, err := openStores(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("open storage")
	}
	defer closeStore()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable, cache disabled and rate limiting in-process")
	} else {
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
	}

	var events queue.Sink = queue.Discard{}
	if cfg.AMQP.Enabled {
		pub := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, cfg.AMQP.BufferSize, log)
		go pub.Run(ctx)
		events = pub
		if cfg.AMQP.Consumer {
			cons := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, cfg.AMQP.LogDir, log)
			go func() {
				if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("catalog consumer stopped")
				}
			}()
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.HTTPErrorHandler
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(cfg.App.BodyLimit))
	e.Use(middleware.RequestID())
	e.Use(middleware.ContextLogger(log))
	e.Use(middleware.AccessLog())
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))
	e.Use(middleware.NewRedisCache(cfg.Cache, rdb))

	router.RegisterRoutes(e,
		handler.NewMovieHandler(movies, events),
		handler.NewScheduleHandler(schedules, movies, events),
	)

	addr := ":" + cfg.App.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.App.Env).Str("storage", cfg.Storage.Driver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// openStores builds the movie and schedule stores for the configured driver.
func openStores(cfg config.Config, log zerolog.Logger) (repository.MovieStore, repository.ScheduleStore, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		s := memory.New()
		return s.Movies(), s.Schedules(), func() {}, nil
	case "postgres":
		db, err := database.OpenPostgres(cfg.PG)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.PG.AutoMigrate {
			if err := gormstore.Migrate(db); err != nil {
				return nil, nil, nil, err
			}
			log.Info().Msg("postgres schema migrated")
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return gormstore.NewMovies(db), gormstore.NewSchedules(db), closeFn, nil
	default:
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewMovieRepo(db), repository.NewScheduleRepo(db), func() { _ = db.Close() }, nil
	}
}
