// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/logger"
)

// Default values shared with other packages
const (
	DefaultItemThreshold     = 0.8
	DefaultCategoryThreshold = 0.75
	DefaultQueryMaxLimit     = 1000
)

// DefaultFulfillmentMethods is the closed set of fulfillment methods
var DefaultFulfillmentMethods = entities.FulfillmentMethods()

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("database.type", DatabaseSQLite)
	v.SetDefault("database.sqlite.path", "orderlens.db")
	v.SetDefault("database.mysql.username", "orderlens")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.database", "orderlens")
	v.SetDefault("database.mysql.maxopenconns", 25)
	v.SetDefault("database.mysql.maxidleconns", 10)
	v.SetDefault("database.mysql.connmaxlifetime", 5*time.Minute)
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)

	v.SetDefault("resolver.itemthreshold", DefaultItemThreshold)
	v.SetDefault("resolver.categorythreshold", DefaultCategoryThreshold)
	v.SetDefault("resolver.cachettl", time.Duration(0))

	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.provider", "export")
	v.SetDefault("ingest.httptimeout", 30*time.Second)

	v.SetDefault("query.timeout", 10*time.Second)
	v.SetDefault("query.maxlimit", DefaultQueryMaxLimit)
	v.SetDefault("query.locations", []string{})
	v.SetDefault("query.fulfillmentmethods", DefaultFulfillmentMethods)
	v.SetDefault("query.providers", []string{})

	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.queryratelimit", 10.0)
	v.SetDefault("server.queryrateburst", 20)

	v.SetDefault("logging.default_level", logger.DefaultLogLevel)
	v.SetDefault("logging.timezone", "UTC")
	v.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	v.SetDefault("logging.console.level", logger.DefaultLogLevel)
	v.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	v.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	v.SetDefault("logging.file_output.level", logger.DefaultLogLevel)
	v.SetDefault("logging.module_levels", map[string]string{})

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
}
