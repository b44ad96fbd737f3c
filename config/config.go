// Package config loads server settings from flags, falling back to
// environment variables and then to built-in defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warp/severance-engine/generic"
	"go.uber.org/zap"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port           int
	StoreDriver    string
	DatabasePath   string
	DatabaseURL    string
	TaxTablesPath  string
	LogLevel       string
	AllowedOrigins []string
}

// Load parses args (without the program name). Flags override the
// environment.
func Load(args []string) (Config, error) {
	var cfg Config
	var origins string

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", getEnvInt("PORT", 8080), "HTTP server port")
	fs.StringVar(&cfg.StoreDriver, "store", getEnv("STORE_DRIVER", DriverSQLite), "storage driver: sqlite, postgres or memory")
	fs.StringVar(&cfg.DatabasePath, "db", getEnv("DB_PATH", "severance.db"), "SQLite database path (\":memory:\" for in-memory)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", getEnv("DATABASE_URL", ""), "PostgreSQL connection URL")
	fs.StringVar(&cfg.TaxTablesPath, "tax-tables", getEnv("TAX_TABLES", ""), "YAML/JSON bracket tables (empty for built-in)")
	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&origins, "cors-origins", getEnv("CORS_ORIGINS", "*"), "comma-separated allowed origins")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.AllowedOrigins = splitList(origins)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return generic.InvalidArgument("port", fmt.Sprintf("%d out of range", c.Port))
	}
	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return generic.InvalidArgument("db", "required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return generic.InvalidArgument("database-url", "required for postgres")
		}
	case DriverMemory:
	default:
		return generic.InvalidArgument("store", "unknown driver "+c.StoreDriver)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return generic.InvalidArgument("log-level", err.Error())
	}
	return nil
}

// NewLogger builds a JSON production logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
