package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDeadlineWindowHours = 72
	DefaultHistoryLimit        = 12
)

type Config struct {
	// HTTP server
	Port string

	// Single-tenant dashboard; every record is owned by this id.
	OwnerID string

	// Storage
	DataBackend  string // "sqlite" or "memory"
	SQLiteDBPath string

	// AMQP snapshot-refresh bus (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Aggregation options
	DeadlineWindowHours int
	HistoryLimit        int
	Locale              string

	// View cache
	CacheSize int
	CacheTTL  time.Duration

	// Worker
	SnapshotInterval time.Duration

	// Google Sheets export (optional, worker only)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8082"),
		OwnerID: getEnv("OWNER_ID", "default"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/lifeboard.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "lifeboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "snapshot_refresh"),

		DeadlineWindowHours: getEnvInt("DEADLINE_WINDOW_HOURS", DefaultDeadlineWindowHours),
		HistoryLimit:        getEnvInt("HISTORY_LIMIT", DefaultHistoryLimit),
		Locale:              getEnv("LOCALE", ""),

		CacheSize: getEnvInt("VIEW_CACHE_SIZE", 128),
		CacheTTL:  getEnvDuration("VIEW_CACHE_TTL", time.Minute),

		SnapshotInterval: getEnvDuration("SNAPSHOT_INTERVAL", 24*time.Hour),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "memory":
		// Nothing to check.
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [sqlite memory]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DeadlineWindowHours < 12 || c.DeadlineWindowHours > 336 {
		problems = append(problems, fmt.Sprintf("invalid deadline window %d: must be between 12 and 336 hours", c.DeadlineWindowHours))
	}
	if c.HistoryLimit < 1 || c.HistoryLimit > 52 {
		problems = append(problems, fmt.Sprintf("invalid history limit %d: must be between 1 and 52", c.HistoryLimit))
	}

	if c.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.SnapshotInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid snapshot interval %v: must be at least 1 minute", c.SnapshotInterval))
	} else if c.SnapshotInterval > 7*24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid snapshot interval %v: must be at most 168 hours", c.SnapshotInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
