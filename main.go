package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // scheduler timezones on minimal images

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kitai/archive"
	"kitai/cache"
	"kitai/config"
	"kitai/content"
	"kitai/db"
	"kitai/handlers"
	"kitai/llm"
	"kitai/logger"
	"kitai/repository"
	"kitai/scheduler"
	"kitai/services"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	logger.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	if err := db.InitWithConfig(cfg); err != nil {
		logger.Error("database initialization failed", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	logger.Info("database connected",
		"driver", cfg.DB.Driver,
		"max_open_conns", cfg.DB.MaxOpenConns,
		"max_idle_conns", cfg.DB.MaxIdleConns,
		"conn_max_lifetime", cfg.DB.ConnMaxLifetime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := repository.Store{}
	deps := services.Deps{
		Sessions:  store,
		Configs:   store,
		Documents: services.NewOrganizationDocuments(store, content.OptionsFromConfig(cfg)),
		NewClient: llm.NewFactory(llm.OptionsFromConfig(cfg)),
		Sink:      store,
		Resumes:   store,
	}

	bucket, err := archive.New(ctx, cfg, repository.MarkArchived)
	if err != nil {
		logger.Warn("resume archive disabled", "error", err)
	} else if bucket != nil {
		deps.Archiver = bucket
		defer bucket.Close()
		logger.Info("resume archive enabled", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	metaCache := cache.New(ctx, cfg)
	resumes := services.NewResumeService(deps, services.ResumeOptionsFromConfig(cfg))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.RegisterRoutes(r, cfg, handlers.Services{
		Resumes: resumes,
		Tools:   services.NewToolService(deps),
		Posts:   services.NewPostService(store, deps.Documents),
		Metadata: services.NewMetadataService(metaCache, services.MetadataOptions{
			Timeout:   time.Duration(cfg.WordPress.TimeoutSec) * time.Second,
			TTL:       time.Duration(cfg.Redis.TTLMin) * time.Minute,
			UserAgent: cfg.WordPress.UserAgent,
		}),
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg, store, resumes)
		if err != nil {
			logger.Error("scheduler configuration invalid", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Timeouts.RequestSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Timeouts.ResponseSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.Timeouts.IdleSec) * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", serverAddr)
		logger.Info("swagger available", "url", fmt.Sprintf("http://%s/swagger/index.html", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if closer, ok := metaCache.(interface{ Close() error }); ok {
		closer.Close()
	}
	db.DB.Close()
	logger.Info("server stopped")
}
