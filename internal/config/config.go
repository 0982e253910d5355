package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Data source kinds.
const (
	SourceDir      = "dir"
	SourceDrive    = "drive"
	SourcePostgres = "postgres"
)

// Defaults are the analysis parameters applied when a request omits them.
type Defaults struct {
	MinSpeedRequirement  float64 `yaml:"min_speed_requirement"`
	IdleThresholdMinutes float64 `yaml:"idle_threshold_minutes"`
}

// InsightConfig configures the language-insight provider.
type InsightConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config is the service configuration.
type Config struct {
	HTTPAddr          string              `yaml:"http_addr"`
	DataSource        string              `yaml:"data_source"`
	DataDir           string              `yaml:"data_dir"`
	DriveFolderID     string              `yaml:"drive_folder_id"`
	GoogleCredentials string              `yaml:"google_credentials"`
	DatabaseURL       string              `yaml:"database_url"`
	RedisAddr         string              `yaml:"redis_addr"`
	CacheTTL          time.Duration       `yaml:"cache_ttl"`
	MaxDatasetBytes   int64               `yaml:"max_dataset_bytes"`
	TimestampLocation string              `yaml:"timestamp_location"`
	Defaults          Defaults            `yaml:"defaults"`
	Insight           InsightConfig       `yaml:"insight"`
	Users             map[string][]string `yaml:"users"`
}

// Load reads env, then overlays the YAML file named by ANALYTICS_CONFIG.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		DataSource:        getenvDefault("DATA_SOURCE", SourceDir),
		DataDir:           getenvDefault("DATA_DIR", "data"),
		DriveFolderID:     os.Getenv("DRIVE_FOLDER_ID"),
		GoogleCredentials: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		CacheTTL:          getenvDuration("CACHE_TTL", 15*time.Minute),
		MaxDatasetBytes:   getenvInt64Default("MAX_DATASET_BYTES", 256<<20),
		TimestampLocation: getenvDefault("TIMESTAMP_LOCATION", "UTC"),
		Defaults: Defaults{
			MinSpeedRequirement:  getenvFloatDefault("MIN_SPEED_REQUIREMENT", 10),
			IdleThresholdMinutes: getenvFloatDefault("IDLE_THRESHOLD_MINUTES", 10),
		},
		Insight: InsightConfig{
			BaseURL: getenvDefault("INSIGHT_BASE_URL", "https://api.deepseek.com/v1"),
			APIKey:  os.Getenv("INSIGHT_API_KEY"),
			Model:   getenvDefault("INSIGHT_MODEL", "deepseek-chat"),
			Timeout: getenvDuration("INSIGHT_TIMEOUT", 300*time.Second),
		},
	}

	if path := os.Getenv("ANALYTICS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.Insight.APIKey == "" {
		cfg.Insight.APIKey = os.Getenv("INSIGHT_API_KEY")
	}
	if cfg.Users == nil {
		cfg.Users = parseUsers(os.Getenv("USER_MACHINES"))
	}
	return cfg, cfg.Validate()
}

// Validate checks the fields required by the selected data source.
func (c Config) Validate() error {
	switch c.DataSource {
	case SourceDir:
		if c.DataDir == "" {
			return errors.New("config: DATA_DIR is required for the dir source")
		}
	case SourceDrive:
		if c.DriveFolderID == "" {
			return errors.New("config: DRIVE_FOLDER_ID is required for the drive source")
		}
		if c.GoogleCredentials == "" {
			return errors.New("config: GOOGLE_APPLICATION_CREDENTIALS is required for the drive source")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL or PG_DSN is required for the postgres source")
		}
	default:
		return fmt.Errorf("config: unknown data source %q", c.DataSource)
	}
	if _, err := time.LoadLocation(c.TimestampLocation); err != nil {
		return fmt.Errorf("config: timestamp location: %w", err)
	}
	return nil
}

// Location resolves TimestampLocation.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimestampLocation)
	if err != nil {
		return time.UTC
	}
	return loc
}

// parseUsers reads one "user:machine1,machine2" entry per line. Entries may
// also be separated by ';', and the "user=m1|m2" form is still accepted.
func parseUsers(value string) map[string][]string {
	users := map[string][]string{}
	entries := strings.FieldsFunc(value, func(r rune) bool { return r == '\n' || r == ';' })
	for _, entry := range entries {
		user, machines, ok := strings.Cut(entry, ":")
		if !ok {
			user, machines, ok = strings.Cut(entry, "=")
		}
		user = strings.TrimSpace(user)
		if !ok || user == "" {
			continue
		}
		list := strings.FieldsFunc(machines, func(r rune) bool { return r == ',' || r == '|' })
		for _, machine := range list {
			machine = strings.TrimSpace(machine)
			if machine != "" {
				users[user] = append(users[user], machine)
			}
		}
	}
	return users
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
