// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/tphakala/orderlens/internal/datastore/entities"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatabaseSettings(&settings.Database)...)
	ve.Errors = append(ve.Errors, validateResolverSettings(&settings.Resolver)...)
	ve.Errors = append(ve.Errors, validateIngestSettings(&settings.Ingest)...)
	ve.Errors = append(ve.Errors, validateQuerySettings(&settings.Query)...)
	ve.Errors = append(ve.Errors, validateServerSettings(&settings.Server)...)

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry.dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// Advisories lists settings that are valid but leave a filter unchecked.
// They are logged at startup.
func Advisories(settings *Settings) []string {
	var notes []string
	if len(settings.Query.Locations) == 0 {
		notes = append(notes, "query.locations is empty, location filters accept any store id")
	}
	if len(settings.Query.Providers) == 0 {
		notes = append(notes, "query.providers is empty, provider filters accept any provider")
	}
	return notes
}

func validateDatabaseSettings(db *DatabaseSettings) []string {
	var errs []string

	switch strings.ToLower(db.Type) {
	case DatabaseSQLite:
		if db.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path must not be empty")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" || db.MySQL.Database == "" || db.MySQL.Username == "" {
			errs = append(errs, "database.mysql host, database and username are required")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, db.Type))
	}

	if db.SlowQueryThreshold < 0 {
		errs = append(errs, "database.slowquerythreshold must not be negative")
	}

	return errs
}

func validateResolverSettings(r *ResolverSettings) []string {
	var errs []string
	if r.ItemThreshold <= 0 || r.ItemThreshold > 1 {
		errs = append(errs, fmt.Sprintf("resolver.itemthreshold must be in (0, 1], got %v", r.ItemThreshold))
	}
	if r.CategoryThreshold <= 0 || r.CategoryThreshold > 1 {
		errs = append(errs, fmt.Sprintf("resolver.categorythreshold must be in (0, 1], got %v", r.CategoryThreshold))
	}
	if r.CacheTTL < 0 {
		errs = append(errs, "resolver.cachettl must not be negative")
	}
	return errs
}

func validateIngestSettings(i *IngestSettings) []string {
	var errs []string
	if i.Concurrency <= 0 {
		errs = append(errs, fmt.Sprintf("ingest.concurrency must be positive, got %d", i.Concurrency))
	}
	if i.Provider == "" {
		errs = append(errs, "ingest.provider must not be empty")
	}
	return errs
}

func validateQuerySettings(q *QuerySettings) []string {
	var errs []string
	if q.Timeout <= 0 {
		errs = append(errs, "query.timeout must be positive")
	}
	if q.MaxLimit <= 0 {
		errs = append(errs, fmt.Sprintf("query.maxlimit must be positive, got %d", q.MaxLimit))
	}
	if len(q.FulfillmentMethods) == 0 {
		errs = append(errs, "query.fulfillmentmethods must not be empty")
	}
	known := entities.FulfillmentMethods()
	for _, method := range q.FulfillmentMethods {
		if !slices.Contains(known, method) {
			errs = append(errs, fmt.Sprintf("query.fulfillmentmethods value %q is not one of %s",
				method, strings.Join(known, ", ")))
		}
	}
	return errs
}

func validateServerSettings(s *ServerSettings) []string {
	var errs []string
	if s.Listen != "" {
		if _, _, err := net.SplitHostPort(s.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("server.listen %q is not a host:port address", s.Listen))
		}
	}
	if s.QueryRateLimit < 0 || s.QueryRateBurst < 0 {
		errs = append(errs, "server.queryratelimit and server.queryrateburst must not be negative")
	}
	return errs
}
