// Package dbexport copies an OrderLens database into another one, typically
// moving a SQLite store to MySQL. Rows keep their primary keys and rows that
// already exist in the target are skipped, so a copy can be re-run.
package dbexport

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// DefaultBatchSize is the number of rows read and written per batch.
const DefaultBatchSize = 1000

// Options controls a copy.
type Options struct {
	BatchSize int
	// Clean deletes every target row before copying.
	Clean bool
	// Verify compares row counts after copying.
	Verify bool
}

// TableStats tracks per-table copy statistics.
type TableStats struct {
	Name     string
	Source   int64
	Copied   int64
	Skipped  int64
	Errors   int64
	Duration time.Duration
}

// Stats summarises a copy.
type Stats struct {
	Tables   []TableStats
	Duration time.Duration
}

// Copier moves rows from source to target.
type Copier struct {
	source *gorm.DB
	target *gorm.DB
	opts   Options
	log    logger.Logger
}

// NewCopier creates a Copier.
func NewCopier(source, target *gorm.DB, log logger.Logger, opts Options) *Copier {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Copier{source: source, target: target, opts: opts, log: log.Module("dbexport")}
}

type table struct {
	name string
	copy func(ctx context.Context, c *Copier, name string) (*TableStats, error)
}

// tables lists the schema in dependency order.
var tables = []table{
	{"canonical_items", copyTable[entities.CanonicalItem]},
	{"canonical_categories", copyTable[entities.CanonicalCategory]},
	{"item_name_mappings", copyTable[entities.ItemNameMapping]},
	{"category_name_mappings", copyTable[entities.CategoryNameMapping]},
	{"orders", copyTable[entities.Order]},
	{"order_line_items", copyTable[entities.OrderLineItem]},
	{"line_item_options", copyTable[entities.LineItemOption]},
}

// Run migrates the target schema and copies every table.
func (c *Copier) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	if err := c.target.WithContext(ctx).AutoMigrate(entities.All()...); err != nil {
		return nil, c.fail(err, "auto_migrate", "")
	}

	if c.isMySQL() {
		if err := c.target.WithContext(ctx).Exec("SET FOREIGN_KEY_CHECKS=0").Error; err != nil {
			return nil, c.fail(err, "disable_foreign_keys", "")
		}
		defer c.target.Exec("SET FOREIGN_KEY_CHECKS=1")
	}

	if c.opts.Clean {
		if err := c.clean(ctx); err != nil {
			return nil, err
		}
	}

	for _, t := range tables {
		ts, err := t.copy(ctx, c, t.name)
		if err != nil {
			return stats, c.fail(err, "copy_table", t.name)
		}
		stats.Tables = append(stats.Tables, *ts)
	}
	stats.Duration = time.Since(start)

	if c.opts.Verify {
		if err := c.verify(ctx); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (c *Copier) isMySQL() bool {
	return c.target.Dialector.Name() == "mysql"
}

// clean deletes target rows in reverse dependency order.
func (c *Copier) clean(ctx context.Context) error {
	for i := len(tables) - 1; i >= 0; i-- {
		name := tables[i].name
		if err := c.target.WithContext(ctx).Exec("DELETE FROM " + name).Error; err != nil {
			return c.fail(err, "clean_table", name)
		}
		c.log.Debug("cleaned table", logger.String("table", name))
	}
	return nil
}

// copyTable copies one table in batches. A failed batch is counted and the
// copy continues with the next one.
func copyTable[T any](ctx context.Context, c *Copier, name string) (*TableStats, error) {
	start := time.Now()
	stats := &TableStats{Name: name}
	log := c.log.With(logger.String("table", name))

	if err := c.source.WithContext(ctx).Model(new(T)).Count(&stats.Source).Error; err != nil {
		return stats, fmt.Errorf("count source rows: %w", err)
	}
	if stats.Source == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	batchNum := 0
	err := c.source.WithContext(ctx).Model(new(T)).FindInBatches(new([]T), c.opts.BatchSize, func(tx *gorm.DB, _ int) error {
		batchNum++
		records := tx.Statement.Dest.(*[]T)

		result := c.target.WithContext(ctx).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(records)
		if result.Error != nil {
			stats.Errors += int64(len(*records))
			log.Warn("batch copy failed",
				logger.Int("batch", batchNum),
				logger.Int("rows", len(*records)),
				logger.Error(result.Error))
			return ctx.Err()
		}

		stats.Copied += result.RowsAffected
		stats.Skipped += int64(len(*records)) - result.RowsAffected
		return nil
	}).Error
	if err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info("table copied",
		logger.Int64("copied", stats.Copied),
		logger.Int64("skipped", stats.Skipped),
		logger.Int64("errors", stats.Errors),
		logger.Duration("elapsed", stats.Duration))
	return stats, nil
}

// verify checks the target holds at least as many rows as the source.
func (c *Copier) verify(ctx context.Context) error {
	var mismatches []string
	for _, t := range tables {
		var src, dst int64
		if err := c.source.WithContext(ctx).Table(t.name).Count(&src).Error; err != nil {
			return c.fail(err, "verify", t.name)
		}
		if err := c.target.WithContext(ctx).Table(t.name).Count(&dst).Error; err != nil {
			return c.fail(err, "verify", t.name)
		}
		if dst < src {
			mismatches = append(mismatches, fmt.Sprintf("%s: source %d rows, target %d", t.name, src, dst))
		}
	}
	if len(mismatches) > 0 {
		return errors.Newf("verification failed: %v", mismatches).
			Component("dbexport").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

func (c *Copier) fail(err error, operation, tableName string) error {
	b := errors.New(err).
		Component("dbexport").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	if tableName != "" {
		b = b.Context("table", tableName)
	}
	return b.Build()
}
