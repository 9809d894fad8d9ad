package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	JWTSecret      string
	SessionTTL     time.Duration

	AdminPIN    string
	StaffPIN    string
	MaxAttempts int
	Lockout     time.Duration

	RequireCustomerName bool

	DBPath string
	DBDSN  string

	MirrorURL         string
	MirrorAPIKey      string
	MirrorDatabaseURL string

	GeminiAPIKey  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SyncDebounce time.Duration
	UploadDir    string
	BaseURL      string
}

// Load reads the environment into a Config and fails fast on anything the
// app cannot run without. A .env file, if present, is loaded by main
// before this runs.
func Load() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		JWTSecret:           strings.TrimSpace(os.Getenv("JWT_SECRET")),
		SessionTTL:          time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		AdminPIN:            strings.TrimSpace(os.Getenv("ADMIN_PIN")),
		StaffPIN:            strings.TrimSpace(os.Getenv("STAFF_PIN")),
		MaxAttempts:         getEnvInt("PIN_MAX_ATTEMPTS", 0),
		Lockout:             time.Duration(getEnvInt("PIN_LOCKOUT_SECONDS", 0)) * time.Second,
		RequireCustomerName: getEnvBool("REQUIRE_CUSTOMER_NAME", true),
		DBPath:              getEnv("DB_PATH", "./smartshop.db"),
		DBDSN:               os.Getenv("DB_DSN"),
		MirrorURL:           strings.TrimRight(os.Getenv("MIRROR_URL"), "/"),
		MirrorAPIKey:        os.Getenv("MIRROR_API_KEY"),
		MirrorDatabaseURL:   os.Getenv("MIRROR_DATABASE_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		SyncDebounce:        time.Duration(getEnvInt("SYNC_DEBOUNCE_MS", 2000)) * time.Millisecond,
		UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}
	if cfg.AdminPIN == "" || cfg.StaffPIN == "" {
		log.Fatal("ADMIN_PIN and STAFF_PIN are required (plain 4-digit value or bcrypt hash)")
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set: photo recognition is disabled")
	}

	return cfg
}

func (c *Config) Address() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
