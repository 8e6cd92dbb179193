// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the environment variables that get early validation.
// Every other key is still reachable through AutomaticEnv.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "ORDERLENS_DEBUG", validateEnvBool},
		{"database.type", "ORDERLENS_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "ORDERLENS_DATABASE_SQLITE_PATH", nil},
		{"database.mysql.password", "ORDERLENS_DATABASE_MYSQL_PASSWORD", nil},
		{"resolver.itemthreshold", "ORDERLENS_RESOLVER_ITEMTHRESHOLD", validateEnvThreshold},
		{"resolver.categorythreshold", "ORDERLENS_RESOLVER_CATEGORYTHRESHOLD", validateEnvThreshold},
		{"ingest.concurrency", "ORDERLENS_INGEST_CONCURRENCY", validateEnvPositiveInt},
		{"query.timeout", "ORDERLENS_QUERY_TIMEOUT", validateEnvDuration},
		{"query.maxlimit", "ORDERLENS_QUERY_MAXLIMIT", validateEnvPositiveInt},
		{"server.listen", "ORDERLENS_SERVER_LISTEN", nil},
		{"sentry.dsn", "ORDERLENS_SENTRY_DSN", nil},
	}
}

// bindEnvVars binds the explicit variables and validates any that are set
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	}
	return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
}

func validateEnvThreshold(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if f <= 0 || f > 1 {
		return fmt.Errorf("must be in (0, 1]")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration such as 10s")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return bindEnvVars(v)
}
