package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Plan describes a billing tier. A LeadLimitMonth of 0 means unlimited.
type Plan struct {
	Name           string
	PriceBRLMonth  int
	SetupFeeBRL    int
	LeadLimitMonth int
}

// PlanCatalog is the static tier table. Plans are keyed by their
// lowercase name; unknown plans fall back to trial.
var PlanCatalog = map[string]Plan{
	"demo":       {Name: "demo", PriceBRLMonth: 0, SetupFeeBRL: 0, LeadLimitMonth: 30},
	"trial":      {Name: "trial", PriceBRLMonth: 0, SetupFeeBRL: 0, LeadLimitMonth: 100},
	"starter":    {Name: "starter", PriceBRLMonth: 79, SetupFeeBRL: 0, LeadLimitMonth: 1000},
	"pro":        {Name: "pro", PriceBRLMonth: 179, SetupFeeBRL: 0, LeadLimitMonth: 5000},
	"enterprise": {Name: "enterprise", PriceBRLMonth: 279, SetupFeeBRL: 0, LeadLimitMonth: 20000},
	"vip":        {Name: "vip", PriceBRLMonth: 279, SetupFeeBRL: 0, LeadLimitMonth: 20000},
}

// PlanByName resolves a plan, defaulting to trial for unknown names.
func PlanByName(name string) Plan {
	if plan, ok := PlanCatalog[strings.ToLower(strings.TrimSpace(name))]; ok {
		return plan
	}
	return PlanCatalog["trial"]
}

// ValidPlan reports whether name is a catalog plan.
func ValidPlan(name string) bool {
	_, ok := PlanCatalog[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Config holds all environment-driven settings.
type Config struct {
	DatabaseURL string
	Port        int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret   string
	AuthJWKSURL string
	DemoKey     string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	ExportBucket   string

	BillingWebhookSecret string

	// MaxScorePayload is an echo body-limit size string, e.g. "50K".
	MaxScorePayload string
	CacheTTL        time.Duration
}

// Load reads configuration from the environment with development
// defaults matching the docker-compose setup.
func Load() *Config {
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        intEnv("PORT", 8080),

		RedisAddr:     stringEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       intEnv("REDIS_DB", 0),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AuthJWKSURL: os.Getenv("AUTH_JWKS_URL"),
		DemoKey:     os.Getenv("DEMO_KEY"),

		MinioEndpoint:  stringEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: stringEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: stringEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:    boolEnv("MINIO_USE_SSL", false),
		ExportBucket:   stringEnv("EXPORT_BUCKET", "lead-exports"),

		BillingWebhookSecret: os.Getenv("BILLING_WEBHOOK_SECRET"),

		MaxScorePayload: stringEnv("MAX_SCORE_PAYLOAD", "50K"),
		CacheTTL:        time.Duration(intEnv("CACHE_TTL_SECONDS", 60)) * time.Second,
	}
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
