// config.go: settings struct for OrderLens and functions to load and write it.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// EnvPrefix is prepended to every environment override, e.g. ORDERLENS_DATABASE_TYPE
const EnvPrefix = "ORDERLENS"

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// SQLiteSettings contains settings for the SQLite store
type SQLiteSettings struct {
	Path string // path to the database file, ":memory:" for an in-memory store
}

// MySQLSettings contains settings for the MySQL store
type MySQLSettings struct {
	Username        string        // database user
	Password        string        // database password
	Host            string        // database host
	Port            string        // database port
	Database        string        // schema name
	MaxOpenConns    int           // connection pool size
	MaxIdleConns    int           // idle connections kept in the pool
	ConnMaxLifetime time.Duration // recycle connections older than this
}

// DatabaseSettings selects and configures the backing store
type DatabaseSettings struct {
	Type               string         // "sqlite" or "mysql"
	SQLite             SQLiteSettings // sqlite settings
	MySQL              MySQLSettings  // mysql settings
	SlowQueryThreshold time.Duration  // statements slower than this are logged at WARN, 0 disables
}

// ResolverSettings contains canonical resolution settings
type ResolverSettings struct {
	ItemThreshold     float64       // minimum similarity to reuse an item entity
	CategoryThreshold float64       // minimum similarity to reuse a category entity
	CacheTTL          time.Duration // lifetime of exact-match cache entries, 0 keeps them forever
}

// IngestSettings contains settings for the ingestion pipeline
type IngestSettings struct {
	Concurrency int           // orders processed in parallel
	Provider    string        // provider tag recorded on ingested orders
	HTTPTimeout time.Duration // timeout for fetching exports over HTTP
}

// QuerySettings contains settings for intent validation and execution
type QuerySettings struct {
	Timeout            time.Duration // deadline for a single query
	MaxLimit           int           // largest accepted intent limit
	Locations          []string      // accepted location filter values, empty accepts any
	FulfillmentMethods []string      // accepted fulfillment method filter values
	Providers          []string      // accepted provider filter values, empty accepts any
}

// ServerSettings contains settings for the HTTP API
type ServerSettings struct {
	Listen         string  // address to listen on
	QueryRateLimit float64 // query requests per second per client, 0 disables
	QueryRateBurst int     // query requests a client may send at once
}

// SentrySettings contains error telemetry settings
type SentrySettings struct {
	Enabled bool   // true to report errors to Sentry
	DSN     string // Sentry project DSN
}

// Settings contains all configuration options for OrderLens.
type Settings struct {
	Debug bool // true to enable debug logging

	Database DatabaseSettings
	Resolver ResolverSettings
	Ingest   IngestSettings
	Query    QuerySettings
	Server   ServerSettings
	Logging  logger.LoggingConfig
	Sentry   SentrySettings
}

// FlagBinding ties a command line flag to a configuration key.
// Flags only override the config value when set explicitly.
type FlagBinding struct {
	Key  string
	Flag *pflag.Flag
}

// Load reads settings from configFile, or from the first config.yaml in the
// default search paths when configFile is empty. Defaults apply for missing
// keys, then environment variables, then bound flags.
func Load(configFile string, flags ...FlagBinding) (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		return nil, errors.New(err).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Context("operation", "bind_env").
			Build()
	}

	for _, binding := range flags {
		if binding.Flag == nil {
			continue
		}
		if err := v.BindPFlag(binding.Key, binding.Flag); err != nil {
			return nil, fmt.Errorf("error binding flag %s: %w", binding.Flag.Name, err)
		}
	}

	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}

	return settings, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.New(fmt.Errorf("error reading config file %s: %w", configFile, err)).
				Component("configuration").
				Category(errors.CategoryFileIO).
				Context("path", configFile).
				Build()
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// defaults and environment only
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return nil
}

// Defaults returns the settings produced by an empty configuration.
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	// defaults are static and always decode
	_ = v.Unmarshal(settings)
	return settings
}

// WriteDefaultConfig writes a YAML config containing the default settings to
// configPath. An existing file is left untouched unless overwrite is set.
func WriteDefaultConfig(configPath string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(configPath); err == nil {
			return errors.Newf("config file already exists: %s", configPath).
				Component("configuration").
				Category(errors.CategoryConflict).
				Build()
		}
	}
	return SaveYAMLConfig(configPath, Defaults())
}

// SaveYAMLConfig writes settings to configPath atomically through a temp file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Component("configuration").
			Category(errors.CategoryFileIO).
			Build()
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// MySQLDSN renders the go-sql-driver DSN for the configured MySQL store.
func (s *DatabaseSettings) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.MySQL.Username, s.MySQL.Password, s.MySQL.Host, s.MySQL.Port, s.MySQL.Database)
}

// IsSQLite reports whether the SQLite backend is selected
func (s *DatabaseSettings) IsSQLite() bool {
	return strings.EqualFold(s.Type, DatabaseSQLite)
}
