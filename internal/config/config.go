package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins []string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Admission gateway knobs. RedisAddr empty means the in-process
	// counter store is used.
	RedisAddr            string
	AdmissionWindow      time.Duration
	AdmissionAdminLimit  int
	AdmissionUserLimit   int
	AdmissionDefault     int
	AdmissionBypassUA    string
	AdmissionEvalTimeout time.Duration
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              fallback(os.Getenv("PORT"), "8080"),
		Environment:       fallback(os.Getenv("APP_ENV"), "development"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CORSOrigins:       parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:         fallback(os.Getenv("JWT_ISSUER"), "authgate"),
		JWTTTL:            minutes("JWT_TTL_MINUTES", 15),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		AdmissionWindow:   seconds("ADMISSION_WINDOW_SECONDS", 60),
		AdmissionBypassUA: fallback(os.Getenv("ADMISSION_BYPASS_UA"), "PostmanRuntime"),

		AdmissionAdminLimit:  intValue("ADMISSION_ADMIN_LIMIT", 20),
		AdmissionUserLimit:   intValue("ADMISSION_USER_LIMIT", 10),
		AdmissionDefault:     intValue("ADMISSION_DEFAULT_LIMIT", 5),
		AdmissionEvalTimeout: seconds("ADMISSION_TIMEOUT_SECONDS", 2),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsTestEnv reports whether the admission gateway bypass for test
// harnesses applies.
func (c Config) IsTestEnv() bool {
	return c.Environment == "test"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intValue(key string, def int) int {
	if n, err := strconv.Atoi(fallback(os.Getenv(key), "")); err == nil && n > 0 {
		return n
	}
	return def
}

func minutes(key string, def int) time.Duration {
	return time.Duration(intValue(key, def)) * time.Minute
}

func seconds(key string, def int) time.Duration {
	return time.Duration(intValue(key, def)) * time.Second
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
