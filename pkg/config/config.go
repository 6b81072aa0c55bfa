package config

import (
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	// DatabaseDSN selects MySQL when set; otherwise SQLitePath is used.
	DatabaseDSN string
	SQLitePath  string

	// RedisAddr enables cross-instance gateway fan-out when set.
	RedisAddr     string
	RedisPassword string

	JWTSecret string
	Port      string

	// runtime tunables
	RateLimitWindowSeconds  int
	RateLimitCapacity       int
	UserConcurrencyLimit    int
	DuplicateWindowSeconds  int
	IncidentCacheTTLSeconds int
	IncidentCacheMaxItems   int
)

// loadAppEnv loads .env for non-production environments only.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		log.Fatal("environment variable APP_ENV must be 'staging' or 'production'")
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	DatabaseDSN = os.Getenv("DATABASE_DSN")
	SQLitePath = os.Getenv("SQLITE_PATH")
	if SQLitePath == "" {
		SQLitePath = "app.db"
	}

	RedisAddr = os.Getenv("REDIS_ADDR")
	RedisPassword = os.Getenv("REDIS_PASSWORD")

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	UserConcurrencyLimit = atoiOr(os.Getenv("USER_CONCURRENCY_LIMIT"), 2)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	IncidentCacheTTLSeconds = atoiOr(os.Getenv("INCIDENT_CACHE_TTL_SECONDS"), 60)
	IncidentCacheMaxItems = atoiOr(os.Getenv("INCIDENT_CACHE_MAX_ITEMS"), 500)

	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}
	if IsProduction && DatabaseDSN == "" {
		log.Fatal("DATABASE_DSN must be set in production")
	}

	log.Printf("[config] AppEnv=%s IsStaging=%v IsProduction=%v", AppEnv, IsStaging, IsProduction)
	log.Printf("[config] MySQL=%v RedisFanout=%v", DatabaseDSN != "", RedisAddr != "")
	log.Printf("[config] RateLimit window=%ds capacity=%d userConc=%d dupWindow=%ds cacheTTL=%ds cacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, UserConcurrencyLimit, DuplicateWindowSeconds, IncidentCacheTTLSeconds, IncidentCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
