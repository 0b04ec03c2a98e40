package main

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"travel_recommender/internal/adapters/filestore"
	"travel_recommender/internal/adapters/observability"
	redisad "travel_recommender/internal/adapters/redis"
	"travel_recommender/internal/adapters/tripadvisor"
	"travel_recommender/internal/app"
	"travel_recommender/internal/domain"
	"travel_recommender/internal/recommend"
	"travel_recommender/internal/shared"
	mysqlrepo "travel_recommender/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "travel-seeder")

	log.Info().
		Str("base", cfg.TripAdvisorBase).
		Int("workers", cfg.SeedWorkers).
		Int("locations", len(shared.Locations)).
		Str("staleness", cfg.ModelStaleness).
		Msg("seeder starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := tripadvisor.New(cfg.TripAdvisorBase, cfg.TripAdvisorHost, cfg.RapidAPIKey, cfg.SeedRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize hotel search client")
	}

	var store domain.ModelStore
	if cfg.ModelStore == "file" {
		store = filestore.NewModelStore(cfg.ModelPath)
	} else {
		store = redisad.NewModelStore(redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB))
	}
	model := recommend.NewClusterModel(store, recommend.ModelConfig{
		Clusters:  cfg.ModelClusters,
		Seed:      cfg.ModelSeed,
		AutoTrain: cfg.ModelAutoTrain,
		Staleness: recommend.ParseStalenessPolicy(cfg.ModelStaleness),
	})

	n, err := app.NewSeedService(client, repo, model, cfg.Currency, cfg.SeedWorkers).Seed(ctx, shared.Locations)
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Int("destinations", n).Msg("seeding completed")
}
