package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

type Config struct {
	ServerPort string
	// TrustProxy takes the client IP from X-Forwarded-For; only enable behind a proxy that sets it.
	TrustProxy bool

	StoreBackend string
	DataFile     string
	CatalogFile  string
	StudentsFile string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SessionTTL     time.Duration
	VerifyPassword bool

	RabbitURL string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RateLimit      bool
	RateLimitBurst int
	RateLimitEvery time.Duration

	AdminJWTSecret string
	AdminPassword  string
	AdminTokenTTL  time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[Config] .env not loaded: %v", err)
	}

	backend := envStr("STORE_BACKEND", BackendFile)
	cfg := Config{
		ServerPort: envStr("APP_PORT", "3000"),
		TrustProxy: envBool("TRUST_PROXY", false),

		StoreBackend: backend,
		DataFile:     envStr("DATA_FILE", "data.json"),
		CatalogFile:  os.Getenv("CATALOG_FILE"),
		StudentsFile: os.Getenv("STUDENTS_FILE"),

		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envStr("DB_PORT", defaultDBPort(backend)),
		DBUser:     envStr("DB_USER", "postgres"),
		DBPassword: envStr("DB_PASSWORD", "postgres"),
		DBName:     envStr("DB_NAME", "seat_tracker"),
		DBSSLMode:  envStr("DB_SSLMODE", "disable"),

		SessionTTL:     envDur("SESSION_TTL", time.Hour),
		VerifyPassword: envBool("VERIFY_PASSWORD", true),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		RateLimit:      envBool("RATE_LIMIT_ENABLED", true),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 10),
		RateLimitEvery: envDur("RATE_LIMIT_EVERY", time.Second),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AdminTokenTTL:  envDur("ADMIN_TOKEN_TTL", 12*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile, BackendPostgres, BackendMySQL:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	return nil
}

// Relational reports whether the configured backend is a SQL database.
func (c Config) Relational() bool {
	return c.StoreBackend == BackendPostgres || c.StoreBackend == BackendMySQL
}

func (c Config) DSN() string {
	if c.StoreBackend == BackendMySQL {
		// parseTime keeps DATETIME columns as time.Time, loc=UTC keeps them comparable
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func defaultDBPort(backend string) string {
	if backend == BackendMySQL {
		return "3306"
	}
	return "5432"
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
