package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	TripAdvisorBase string
	TripAdvisorHost string
	RapidAPIKey     string
	SeedWorkers     int
	SeedRPS         int
	Currency        string

	PageSize   int
	ProfileTTL int // seconds; 0 keeps profiles forever

	ModelStore     string // redis|file
	ModelPath      string
	ModelClusters  int
	ModelSeed      uint64
	ModelAutoTrain bool
	ModelStaleness string        // accept|fingerprint|retrain
	ModelRefresh   time.Duration // store re-read interval; 0 every request, negative never

	BreakerFailures int
	BreakerTimeout  time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisDB:     atoi("REDIS_DB", 0),
		RedisPass:   env("REDIS_PASSWORD", ""),

		TripAdvisorBase: env("TRIPADVISOR_BASE_URL", "https://tripadvisor16.p.rapidapi.com"),
		TripAdvisorHost: env("TRIPADVISOR_HOST", "tripadvisor16.p.rapidapi.com"),
		RapidAPIKey:     env("RAPIDAPI_KEY", ""),
		SeedWorkers:     atoi("SEED_WORKERS", 4),
		SeedRPS:         atoi("SEED_RPS", 5),
		Currency:        env("SEED_CURRENCY", "NGN"),

		PageSize:   atoi("PAGE_SIZE", 5),
		ProfileTTL: atoi("PROFILE_TTL_SECONDS", 7*24*3600),

		ModelStore:     env("MODEL_STORE", "redis"),
		ModelPath:      env("MODEL_PATH", "data/cluster_model.json"),
		ModelClusters:  atoi("MODEL_CLUSTERS", 5),
		ModelSeed:      uint64(atoi("MODEL_SEED", 42)),
		ModelAutoTrain: boolean("MODEL_AUTO_TRAIN", true),
		ModelStaleness: env("MODEL_STALENESS", "accept"),
		ModelRefresh:   time.Duration(atoi("MODEL_REFRESH_SECONDS", 30)) * time.Second,

		BreakerFailures: atoi("STORE_BREAKER_FAILURES", 5),
		BreakerTimeout:  time.Duration(atoi("STORE_BREAKER_TIMEOUT_SECONDS", 30)) * time.Second,
	}
	if c.PageSize <= 0 {
		log.Warn().Int("page_size", c.PageSize).Msg("PAGE_SIZE must be positive; using 5")
		c.PageSize = 5
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
