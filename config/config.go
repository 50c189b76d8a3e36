package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/viktsys/gasinsight/models"
)

type Config struct {
	App      AppConfig                 `yaml:"app" toml:"app"`
	Database DatabaseConfig            `yaml:"database" toml:"database"`
	Cache    CacheConfig               `yaml:"cache" toml:"cache"`
	Server   ServerConfig              `yaml:"server" toml:"server"`
	Logging  LoggingConfig             `yaml:"logging" toml:"logging"`
	Analysis AnalysisConfig            `yaml:"analysis" toml:"analysis"`
	Sensors  map[models.Section]string `yaml:"sensors" toml:"sensors"`
	Export   ExportConfig              `yaml:"export" toml:"export"`
}

type AppConfig struct {
	Name    string `yaml:"name" toml:"name"`
	Version string `yaml:"version" toml:"version"`
}

type DatabaseConfig struct {
	Driver       string        `yaml:"driver" toml:"driver"`
	Host         string        `yaml:"host" toml:"host"`
	Port         string        `yaml:"port" toml:"port"`
	User         string        `yaml:"user" toml:"user"`
	Password     string        `yaml:"password" toml:"password"`
	Name         string        `yaml:"name" toml:"name"`
	Schema       string        `yaml:"schema" toml:"schema"`
	TimeZone     string        `yaml:"time_zone" toml:"time_zone"`
	QueryTimeout time.Duration `yaml:"query_timeout" toml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns" toml:"max_open_conns"`
}

type CacheConfig struct {
	Dir string        `yaml:"dir" toml:"dir"`
	TTL time.Duration `yaml:"ttl" toml:"ttl"`
}

type ServerConfig struct {
	Address string `yaml:"address" toml:"address"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
	MaxAge int    `yaml:"max_age" toml:"max_age"`
}

type AnalysisConfig struct {
	// Policy names a built in operating day policy. Ignored when Custom is set.
	Policy string                     `yaml:"policy" toml:"policy"`
	Custom *models.OperatingDayPolicy `yaml:"custom_policy" toml:"custom_policy"`
	// EarliestDay is the first day with telemetry; requests before it are rejected.
	EarliestDay string `yaml:"earliest_day" toml:"earliest_day"`
}

type ExportConfig struct {
	Label string `yaml:"label" toml:"label"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "gasinsight", Version: "1.0.0"},
		Database: DatabaseConfig{
			Driver:       "postgres",
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "password",
			Name:         "iotgirardota",
			TimeZone:     "America/Bogota",
			QueryTimeout: 60 * time.Second,
			MaxOpenConns: 10,
		},
		Cache:   CacheConfig{Dir: "./data", TTL: 10 * time.Minute},
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Analysis: AnalysisConfig{
			Policy:      models.StandardPolicy.Name,
			EarliestDay: "2025-02-10",
		},
		Sensors: map[models.Section]string{
			models.SectionERM:     "gas_ERM",
			models.SectionInterno: "gas_INT",
			models.SectionHorno:   "gas_H5",
		},
		Export: ExportConfig{Label: "IIOT"},
	}
}

// LoadConfig reads a YAML or TOML file depending on its extension and applies
// environment overrides. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yml", ".yaml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
}

func applyEnv(cfg *Config) {
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	if v := getEnv("DB_QUERY_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Database.QueryTimeout = d
		}
	}
	if v := getEnv("DB_MAX_OPEN_CONNS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.MaxOpenConns = n
		}
	}
	cfg.Cache.Dir = getEnv("CACHE_DIR", cfg.Cache.Dir)
	cfg.Server.Address = getEnv("SERVER_ADDR", cfg.Server.Address)
	cfg.Analysis.Policy = getEnv("OPERATING_DAY_POLICY", cfg.Analysis.Policy)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// Policy resolves the operating day policy the analysis runs with.
func (c *Config) Policy() (models.OperatingDayPolicy, error) {
	if c.Analysis.Custom != nil {
		p := *c.Analysis.Custom
		if p.Name == "" {
			p.Name = "custom"
		}
		return p, p.Validate()
	}
	return models.PolicyByName(c.Analysis.Policy)
}

// Earliest parses Analysis.EarliestDay; the zero time means unbounded.
func (c *Config) Earliest() time.Time {
	t, err := time.Parse(models.DateLayout, c.Analysis.EarliestDay)
	if err != nil {
		return time.Time{}
	}
	return t
}

var tableNameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidTableName reports whether name can be interpolated into a query as an identifier.
func ValidTableName(name string) bool {
	return tableNameRegexp.MatchString(name)
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case "postgres", "sqlserver":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlserver, got %q", cfg.Database.Driver)
	}

	if cfg.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be greater than 0")
	}

	if cfg.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}

	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	if _, err := cfg.Policy(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	if cfg.Analysis.EarliestDay != "" {
		if _, err := time.Parse(models.DateLayout, cfg.Analysis.EarliestDay); err != nil {
			return fmt.Errorf("analysis.earliest_day must be YYYY-MM-DD: %w", err)
		}
	}

	for _, section := range models.PhysicalSections {
		table, ok := cfg.Sensors[section]
		if !ok {
			return fmt.Errorf("sensors.%s is required", section)
		}
		if !ValidTableName(table) {
			return fmt.Errorf("sensors.%s table name %q is invalid", section, table)
		}
	}

	return nil
}
