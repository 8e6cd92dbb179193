package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/orderlens/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	settings := Defaults()

	assert.Equal(t, DatabaseSQLite, settings.Database.Type)
	assert.InDelta(t, DefaultItemThreshold, settings.Resolver.ItemThreshold, 1e-9)
	assert.InDelta(t, DefaultCategoryThreshold, settings.Resolver.CategoryThreshold, 1e-9)
	assert.Equal(t, 4, settings.Ingest.Concurrency)
	assert.Equal(t, 10*time.Second, settings.Query.Timeout)
	assert.Equal(t, []string{"delivery", "pickup", "dine_in", "unknown"}, settings.Query.FulfillmentMethods)
	assert.Empty(t, settings.Query.Locations)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	require.NoError(t, ValidateSettings(settings))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  type: mysql
  mysql:
    host: db.internal
    username: reporting
    database: orders
resolver:
  itemthreshold: 0.9
query:
  locations: [downtown, airport]
  maxlimit: 50
  timeout: 3s
logging:
  default_level: debug
  module_levels:
    datastore: trace
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DatabaseMySQL, settings.Database.Type)
	assert.Equal(t, "db.internal", settings.Database.MySQL.Host)
	assert.Equal(t, "3306", settings.Database.MySQL.Port)
	assert.InDelta(t, 0.9, settings.Resolver.ItemThreshold, 1e-9)
	assert.InDelta(t, DefaultCategoryThreshold, settings.Resolver.CategoryThreshold, 1e-9)
	assert.Equal(t, []string{"downtown", "airport"}, settings.Query.Locations)
	assert.Equal(t, 50, settings.Query.MaxLimit)
	assert.Equal(t, 3*time.Second, settings.Query.Timeout)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["datastore"])
	assert.Equal(t, "reporting:@tcp(db.internal:3306)/orders?charset=utf8mb4&parseTime=True&loc=UTC", settings.Database.MySQLDSN())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "ingest:\n  concurrency: 2\n")
	t.Setenv("ORDERLENS_INGEST_CONCURRENCY", "8")
	t.Setenv("ORDERLENS_SERVER_LISTEN", "0.0.0.0:9090")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, settings.Ingest.Concurrency)
	assert.Equal(t, "0.0.0.0:9090", settings.Server.Listen)
}

func TestInvalidEnvironmentValueIsRejected(t *testing.T) {
	t.Setenv("ORDERLENS_RESOLVER_ITEMTHRESHOLD", "1.5")

	_, err := Load(writeConfig(t, "{}\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("ORDERLENS_INGEST_PROVIDER", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("provider", "", "")
	require.NoError(t, flags.Parse([]string{"--provider", "from-flag"}))

	settings, err := Load(writeConfig(t, "{}\n"), FlagBinding{Key: "ingest.provider", Flag: flags.Lookup("provider")})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", settings.Ingest.Provider)
}

func TestValidationCollectsAllErrors(t *testing.T) {
	path := writeConfig(t, `
database:
  type: postgres
resolver:
  itemthreshold: 0
ingest:
  concurrency: 0
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 3)
}

func TestUnknownFulfillmentMethodIsRejected(t *testing.T) {
	path := writeConfig(t, "query:\n  fulfillmentmethods: [delivery, drone]\n")

	_, err := Load(path)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Errors, 1)
	assert.Contains(t, ve.Errors[0], `"drone"`)
}

func TestAdvisoriesForOpenFilterSets(t *testing.T) {
	settings := Defaults()
	assert.Len(t, Advisories(settings), 2)

	settings.Query.Locations = []string{"downtown"}
	settings.Query.Providers = []string{"square"}
	assert.Empty(t, Advisories(settings))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path, false))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), settings)

	err = WriteDefaultConfig(path, false)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConflict))

	require.NoError(t, WriteDefaultConfig(path, true))
}
