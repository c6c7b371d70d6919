package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/application"
	appextraction "github.com/sperow/medrecords/internal/application/extraction"
	apprecords "github.com/sperow/medrecords/internal/application/records"
	appsearch "github.com/sperow/medrecords/internal/application/search"
	"github.com/sperow/medrecords/internal/config"
	"github.com/sperow/medrecords/internal/domain/consultation"
	domsearch "github.com/sperow/medrecords/internal/domain/search"
	"github.com/sperow/medrecords/internal/infra/ai/gemini"
	"github.com/sperow/medrecords/internal/infra/ai/openai"
	"github.com/sperow/medrecords/internal/infra/cache"
	mysqlp "github.com/sperow/medrecords/internal/infra/db/mysql"
	postgresp "github.com/sperow/medrecords/internal/infra/db/postgres"
	"github.com/sperow/medrecords/internal/infra/httpserver"
	"github.com/sperow/medrecords/internal/infra/ocr/textract"
	minioStore "github.com/sperow/medrecords/internal/infra/storage"
	"github.com/sperow/medrecords/internal/middleware"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.Development() {
		log = log.Level(zerolog.DebugLevel)
	}

	ctx := context.Background()

	var db *sql.DB
	var consultations consultation.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect error")
		}
		consultations = postgresp.NewConsultationRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatal().Err(err).Msg("mysql connect error")
		}
		consultations = mysqlp.NewConsultationRepository(db)
	}
	defer db.Close()

	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("minio init error")
	}

	ocr, err := textract.New(ctx,
		cfg.Textract.Region,
		cfg.Textract.AccessKey,
		cfg.Textract.SecretKey,
		cfg.Minio.BucketName,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("textract init error")
	}

	sessions := cache.New(cfg.Redis.URL, cfg.Redis.SessionTTL, log)

	var llm *openai.Client
	if cfg.LLM.Provider == "azure_openai" {
		llm = openai.NewAzureClient(cfg.LLM.AzureAPIKey, cfg.LLM.AzureEndpoint, cfg.LLM.Model, cfg.LLM.Timeout, log)
	} else {
		llm = openai.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, log)
	}

	// Search stays optional: without a key the endpoint answers 503 instead
	// of blocking the rest of the service.
	var searchClient domsearch.Client
	if cfg.Gemini.APIKey != "" {
		gc, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
		if err != nil {
			log.Fatal().Err(err).Msg("gemini init error")
		}
		searchClient = gc
	} else {
		log.Warn().Msg("gemini api key not set, search disabled")
	}
	searchSvc := &appsearch.Service{Client: searchClient, Log: log}

	extractor := &appextraction.Service{
		Store:        store,
		OCR:          ocr,
		PollInterval: cfg.Textract.PollInterval,
		Log:          log,
	}

	svc := &apprecords.Service{
		Extractor:     extractor,
		LLM:           llm,
		Cache:         sessions,
		Consultations: consultations,
		Clock:         application.SystemClock{},
		Development:   cfg.Development(),
		Log:           log,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	mux.Use(middleware.RateLimitMiddleware(60, 1))

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"redis": middleware.CheckerFunc(func(ctx context.Context) error {
			return sessions.Ping(ctx)
		}),
	}))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Mount("/", httpserver.NewRouter(svc, searchSvc))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
