package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"travel_recommender/internal/adapters/filestore"
	server "travel_recommender/internal/adapters/http_server"
	"travel_recommender/internal/adapters/observability"
	redisad "travel_recommender/internal/adapters/redis"
	"travel_recommender/internal/app"
	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
	"travel_recommender/internal/shared"
	mysqlrepo "travel_recommender/internal/storage/mysql"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "travel-api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	model := recommend.NewClusterModel(modelStore(cfg, cache), modelConfig(cfg))
	svc := app.NewRecommendationService(repo, model, redisad.NewProfileStore(cache, cfg.ProfileTTL), app.Options{
		PageSize:        cfg.PageSize,
		Currency:        cfg.Currency,
		BreakerFailures: uint32(cfg.BreakerFailures),
		BreakerTimeout:  cfg.BreakerTimeout,
	})

	// warm the model so the first request does not pay for training
	if _, err := model.Load(context.Background()); err != nil {
		log.Warn().Err(err).Msg("no persisted cluster model; it will be trained on first use")
	}

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(svc))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdown); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("API stopped")
}

func modelConfig(cfg shared.Config) recommend.ModelConfig {
	return recommend.ModelConfig{
		Clusters:  cfg.ModelClusters,
		Seed:      cfg.ModelSeed,
		AutoTrain: cfg.ModelAutoTrain,
		Staleness: recommend.ParseStalenessPolicy(cfg.ModelStaleness),
		Refresh:   cfg.ModelRefresh,
	}
}

func modelStore(cfg shared.Config, cache domain.Cache) domain.ModelStore {
	if cfg.ModelStore == "file" {
		return filestore.NewModelStore(cfg.ModelPath)
	}
	return redisad.NewModelStore(cache)
}
