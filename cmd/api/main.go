package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/mediaverify/internal/application"
	appanalyze "github.com/bryanwahyu/mediaverify/internal/application/analyze"
	appchecks "github.com/bryanwahyu/mediaverify/internal/application/checks"
	appreports "github.com/bryanwahyu/mediaverify/internal/application/reports"
	"github.com/bryanwahyu/mediaverify/internal/config"
	domchecks "github.com/bryanwahyu/mediaverify/internal/domain/checks"
	domreports "github.com/bryanwahyu/mediaverify/internal/domain/reports"
	openaiclient "github.com/bryanwahyu/mediaverify/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/mediaverify/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/mediaverify/internal/infra/db/postgres"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect/huggingface"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect/resemble"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect/sapling"
	"github.com/bryanwahyu/mediaverify/internal/infra/detect/sightengine"
	"github.com/bryanwahyu/mediaverify/internal/infra/httpserver"
	"github.com/bryanwahyu/mediaverify/internal/infra/media/ffmpeg"
	minioStore "github.com/bryanwahyu/mediaverify/internal/infra/storage"
	"github.com/bryanwahyu/mediaverify/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database
	var (
		db       *sql.DB
		checks   domchecks.Repository
		users    domchecks.UserRepository
		failures domchecks.FailureLog
		reports  domreports.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		checks = postgresp.NewCheckRepository(db)
		users = postgresp.NewUserRepository(db)
		reports = postgresp.NewReportRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		checks = mysqlp.NewCheckRepository(db)
		users = mysqlp.NewUserRepository(db)
		failures = mysqlp.NewFailureRepository(db)
		reports = mysqlp.NewReportRepository(db)
	}
	defer db.Close()

	// init minio evidence store
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// ffmpeg collaborators
	prober := ffmpeg.NewProber()
	transcoder := ffmpeg.NewTranscoder()
	sampler := ffmpeg.NewFrameSampler(cfg.Limits.FrameFPS)

	// provider adapters
	providerTimeout := cfg.ProviderTimeoutDuration()
	imagePrimary := sightengine.NewClient(
		cfg.Providers.Sightengine.APIUser,
		cfg.Providers.Sightengine.APISecret,
		providerTimeout,
	)
	imageFallback := huggingface.NewImageClient(cfg.Providers.HuggingFace.Token, providerTimeout)
	audioPrimary := resemble.NewClient(cfg.Providers.Resemble.APIKey, providerTimeout, transcoder)
	audioFallback := huggingface.NewAudioClient(cfg.Providers.HuggingFace.Token, providerTimeout, transcoder)
	textDetector := sapling.NewClient(cfg.Providers.Sapling.APIKey, providerTimeout)

	video := &appanalyze.VideoPipeline{
		Prober:         prober,
		Sampler:        sampler,
		Primary:        imagePrimary,
		Fallback:       imageFallback,
		MaxDurationSec: cfg.Limits.MaxVideoSeconds,
		Concurrency:    cfg.Limits.FrameConcurrency,
	}

	router := &appanalyze.Service{
		ImagePrimary:  imagePrimary,
		ImageFallback: imageFallback,
		AudioPrimary:  audioPrimary,
		AudioFallback: audioFallback,
		Text:          textDetector,
		Video:         video,
	}

	// application services
	checksSvc := &appchecks.Service{
		Repo:           checks,
		Users:          users,
		Router:         router,
		Evidence:       store,
		Failures:       failures,
		Clock:          application.SystemClock{},
		FreeDailyLimit: cfg.Limits.FreeDailyChecks,
	}

	aiClient := openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	reportsSvc := &appreports.Service{
		Client: aiClient,
		Repo:   reports,
		Checks: checks,
		Clock:  application.SystemClock{},
	}

	// router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.Keys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	}
	mux.Use(middleware.RateLimitMiddleware(30, 30))

	mux.Get("/healthz", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"ffmpeg":   &middleware.BinaryHealthChecker{Binary: "ffmpeg"},
		"ffprobe":  &middleware.BinaryHealthChecker{Binary: "ffprobe"},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(checksSvc, reportsSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
