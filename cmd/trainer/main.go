package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"travel_recommender/internal/adapters/filestore"
	"travel_recommender/internal/adapters/observability"
	redisad "travel_recommender/internal/adapters/redis"
	"travel_recommender/internal/recommend"
	"travel_recommender/internal/shared"
	mysqlrepo "travel_recommender/internal/storage/mysql"
)

// trainer fits the cluster model over the stored destinations and persists it.
func main() {
	_ = godotenv.Load()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, "travel-trainer")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()

	ds, err := mysqlrepo.New(db).ListDestinations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list destinations failed")
	}

	mc := recommend.ModelConfig{Clusters: cfg.ModelClusters, Seed: cfg.ModelSeed}
	var m *recommend.ClusterModel
	if cfg.ModelStore == "file" {
		m = recommend.NewClusterModel(filestore.NewModelStore(cfg.ModelPath), mc)
	} else {
		m = recommend.NewClusterModel(redisad.NewModelStore(redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)), mc)
	}

	a, err := m.Train(ctx, ds)
	if err != nil {
		log.Fatal().Err(err).Int("destinations", len(ds)).Msg("training failed")
	}
	for _, st := range recommend.Stats(a, ds) {
		log.Info().
			Int("cluster", st.Label).
			Int("count", st.Count).
			Float64("avg_budget", st.AvgBudget).
			Float64("avg_climate", st.AvgClimate).
			Float64("avg_rating", st.AvgRating).
			Msg("cluster summary")
	}
	log.Info().Str("version", a.Version).Str("store", cfg.ModelStore).Msg("model saved")
}
