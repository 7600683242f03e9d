package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                      string
	AllowedOrigin             string
	DatabaseURL               string
	RedisAddr                 string
	RedisPassword             string
	RedisDB                   int
	AuthSecret                string
	AccessTokenTTLMinutes     int
	QuoteTTLMinutes           int
	EvaluationCacheTTLSeconds int
	SimulationWorkers         int
	SimulationSeed            uint64
	SimulationQuantity        int
	LogLevel                  string
	LogFormat                 string
	LogFile                   string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is read first; it never overrides variables that are
// already set.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	seed, _ := strconv.ParseUint(getEnv("SIMULATION_SEED", "0"), 10, 64)

	cfg := Config{
		Port:                      getEnv("PORT", "8080"),
		AllowedOrigin:             getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   redisDB,
		AuthSecret:                strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:     positiveInt("ACCESS_TOKEN_TTL_MINUTES", 480),
		QuoteTTLMinutes:           positiveInt("QUOTE_TTL_MINUTES", 30),
		EvaluationCacheTTLSeconds: positiveInt("EVALUATION_CACHE_TTL_SECONDS", 60),
		SimulationWorkers:         positiveInt("SIMULATION_WORKERS", 2),
		SimulationSeed:            seed,
		SimulationQuantity:        positiveInt("SIMULATION_QUANTITY", 100),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFormat:                 getEnv("LOG_FORMAT", "json"),
		LogFile:                   os.Getenv("LOG_FILE"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) QuoteTTL() time.Duration {
	return time.Duration(c.QuoteTTLMinutes) * time.Minute
}

func (c Config) EvaluationCacheTTL() time.Duration {
	return time.Duration(c.EvaluationCacheTTLSeconds) * time.Second
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
