package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	DatabasePath string
	Port         string
	LogLevel     string
	LogFormat    string

	// DataBackend picks where finance data lives; tasks and accounts are
	// always stored in SQLite.
	DataBackend string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CacheSize int
	CacheTTL  time.Duration

	MaxOccurrences int

	DigestSchedule     string
	CacheSweepSchedule string

	ICalToken string
	Locale    string
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE
// (if set), then the process environment; later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	values, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	source := lookup{file: values}

	config := Config{
		DatabasePath:       source.string("DATABASE_PATH", "./data/household-hub.db"),
		Port:               source.string("PORT", "8080"),
		LogLevel:           source.string("LOG_LEVEL", "info"),
		LogFormat:          source.string("LOG_FORMAT", "text"),
		DataBackend:        source.string("DATA_BACKEND", BackendSQLite),
		AMQPURL:            source.string("AMQP_URL", ""),
		AMQPExchange:       source.string("AMQP_EXCHANGE", "household-hub"),
		AMQPQueue:          source.string("AMQP_QUEUE", "household-events"),
		CacheSize:          source.int("CACHE_SIZE", 256),
		CacheTTL:           source.duration("CACHE_TTL", 5*time.Minute),
		MaxOccurrences:     source.int("MAX_OCCURRENCES", 1500),
		DigestSchedule:     source.string("DIGEST_SCHEDULE", "0 6 * * *"),
		CacheSweepSchedule: source.string("CACHE_SWEEP_SCHEDULE", "@every 10m"),
		ICalToken:          source.string("ICAL_TOKEN", ""),
		Locale:             source.string("LOCALE", "de"),
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// readFile loads a flat YAML mapping such as "database_path: /data/hub.db".
// Keys are matched case-insensitively against the environment names.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		values[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return values, nil
}

type lookup struct {
	file map[string]string
}

func (source lookup) get(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	value, found := source.file[key]
	return value, found && value != ""
}

func (source lookup) string(key, defaultValue string) string {
	if value, found := source.get(key); found {
		return value
	}
	return defaultValue
}

func (source lookup) int(key string, defaultValue int) int {
	if value, found := source.get(key); found {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (source lookup) duration(key string, defaultValue time.Duration) time.Duration {
	if value, found := source.get(key); found {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate reports every invalid setting at once.
func (config Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(config.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", config.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch config.DataBackend {
	case BackendSQLite, BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be sqlite or memory", config.DataBackend))
	}
	if config.DatabasePath == "" {
		problems = append(problems, "database path cannot be empty")
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", config.LogLevel))
	}
	switch config.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", config.LogFormat))
	}

	if config.AMQPURL != "" {
		if parsed, err := url.Parse(config.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if config.AMQPExchange == "" || config.AMQPQueue == "" {
			problems = append(problems, "AMQP exchange and queue are required when AMQP_URL is set")
		}
	}

	if config.CacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", config.CacheSize))
	}
	if config.CacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid cache ttl %v: must be positive", config.CacheTTL))
	}
	if config.MaxOccurrences < 1 || config.MaxOccurrences > 100000 {
		problems = append(problems, fmt.Sprintf("invalid max occurrences %d: must be between 1 and 100000", config.MaxOccurrences))
	}

	for name, spec := range map[string]string{"digest": config.DigestSchedule, "cache sweep": config.CacheSweepSchedule} {
		if _, err := cron.ParseStandard(spec); err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s schedule '%s': %v", name, spec, err))
		}
	}

	if _, err := language.Parse(config.Locale); err != nil {
		problems = append(problems, fmt.Sprintf("invalid locale '%s'", config.Locale))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
