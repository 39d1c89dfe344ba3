// Package config loads and validates the service's environment-driven
// configuration (spec §6, §4.8).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OracleConfig configures one external HTTP oracle.
type OracleConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BudgetConfig holds the default per-run call quotas.
type BudgetConfig struct {
	Search int
	Recog  int
	LLM    int
}

// Config is the immutable, process-wide configuration loaded once at
// startup. Nothing downstream mutates it.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	WhitelistedIPs  []string
	DatabaseDSN     string

	RateLimitMax       int
	RateLimitWindow    time.Duration
	HopLimit           int
	ConfidenceThreshold int
	ImagesPerQuery      int
	Budgets             BudgetConfig

	ImageSearch    OracleConfig
	FaceRecognizer OracleConfig
	VisionFilter   OracleConfig
	Planner        OracleConfig

	Retention *RetentionConfig
}

// Load reads configuration from the process environment, optionally
// layering a `.env` file underneath real environment variables (godotenv,
// absence is non-fatal). It returns a validated Config or a *MultiError
// listing every problem found.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{
		ListenAddr:          envString("LISTEN_ADDR", ":8080"),
		AllowedOrigins:      envList("ALLOWED_ORIGINS"),
		WhitelistedIPs:      envList("WHITELISTED_IPS"),
		DatabaseDSN:         envString("DATABASE_DSN", ""),
		RateLimitMax:        envInt("RATE_LIMIT_MAX", 50),
		RateLimitWindow:     time.Duration(envInt("RATE_LIMIT_WINDOW_SEC", 86400)) * time.Second,
		HopLimit:            envInt("HOP_LIMIT", 6),
		ConfidenceThreshold: envInt("CONFIDENCE_THRESHOLD", 80),
		ImagesPerQuery:      envInt("IMAGES_PER_QUERY", 5),
		Budgets: BudgetConfig{
			Search: envInt("BUDGET_SEARCH", 20),
			Recog:  envInt("BUDGET_RECOG", 100),
			LLM:    envInt("BUDGET_LLM", 15),
		},
		ImageSearch:    loadOracle("IMAGE_SEARCH", 15*time.Second),
		FaceRecognizer: loadOracle("FACE_RECOGNIZER", 15*time.Second),
		VisionFilter:   loadOracle("VISION_FILTER", 10*time.Second),
		Planner:        loadOracle("PLANNER", 30*time.Second),
		Retention:      DefaultRetentionConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field's bounds and accumulates every problem
// found, rather than stopping at the first (§4.8 Configuration).
func (c *Config) Validate() error {
	m := &MultiError{}

	if c.DatabaseDSN == "" {
		m.add("DATABASE_DSN", fmt.Errorf("%w: must not be empty", ErrMissingRequiredField))
	}
	if c.RateLimitMax < 0 {
		m.add("RATE_LIMIT_MAX", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if c.RateLimitWindow <= 0 {
		m.add("RATE_LIMIT_WINDOW_SEC", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if c.HopLimit < 1 {
		m.add("HOP_LIMIT", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		m.add("CONFIDENCE_THRESHOLD", fmt.Errorf("%w: must be in [0,100]", ErrInvalidValue))
	}
	if c.ImagesPerQuery < 1 {
		m.add("IMAGES_PER_QUERY", fmt.Errorf("%w: must be >= 1", ErrInvalidValue))
	}
	if c.Budgets.Search < 0 || c.Budgets.Recog < 0 || c.Budgets.LLM < 0 {
		m.add("budgets", fmt.Errorf("%w: budgets must be >= 0", ErrInvalidValue))
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "" {
			m.add("ALLOWED_ORIGINS", fmt.Errorf("%w: empty entry in comma-separated list", ErrInvalidValue))
		}
	}
	for _, ip := range c.WhitelistedIPs {
		if ip == "" {
			m.add("WHITELISTED_IPS", fmt.Errorf("%w: empty entry in comma-separated list", ErrInvalidValue))
		}
	}

	return m.orNil()
}

func loadOracle(prefix string, defaultTimeout time.Duration) OracleConfig {
	return OracleConfig{
		BaseURL: envString(prefix+"_URL", ""),
		APIKey:  envString(prefix+"_API_KEY", ""),
		Timeout: time.Duration(envInt(prefix+"_TIMEOUT_SEC", int(defaultTimeout/time.Second))) * time.Second,
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envList(key string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
