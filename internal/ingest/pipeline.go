package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/datastore/repository"
	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// DefaultConcurrency is the number of orders processed at once.
const DefaultConcurrency = 4

// Record kinds and outcomes reported to the Recorder.
const (
	RecordOrder    = "order"
	RecordLineItem = "line_item"
	RecordOption   = "option"

	OutcomeSaved   = "saved"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Run statuses reported to the Recorder.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
	RunCanceled  = "canceled"
)

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OrderWriter persists single order, line item and option rows.
type OrderWriter interface {
	SaveOrder(ctx context.Context, order *entities.Order) error
	SaveLineItem(ctx context.Context, item *entities.OrderLineItem) error
	SaveOption(ctx context.Context, option *entities.LineItemOption) error
}

// LineResolver maps raw item and category names to canonical IDs.
type LineResolver interface {
	ResolveLineItem(ctx context.Context, itemName, categoryName string) (itemID, categoryID *uint, err error)
}

// Recorder receives ingestion outcomes. A nil Recorder is allowed.
type Recorder interface {
	RecordIngested(record, outcome string)
	RecordIngestRun(provider, status string, duration time.Duration)
}

// Config holds Pipeline settings.
type Config struct {
	Concurrency int
	Recorder    Recorder
}

// Summary counts what one run did.
type Summary struct {
	RunID              string
	Provider           string
	Orders             int
	OrdersSaved        int
	OrdersSkipped      int
	OrdersFailed       int
	LineItemsSaved     int
	LineItemsFailed    int
	OptionsSaved       int
	OptionsFailed      int
	ResolutionFailures int
	Duration           time.Duration
}

// Pipeline writes parsed exports to the store.
type Pipeline struct {
	pinger      Pinger
	orders      OrderWriter
	resolver    LineResolver
	log         logger.Logger
	concurrency int
	recorder    Recorder
}

// NewPipeline creates a pipeline.
func NewPipeline(pinger Pinger, orders OrderWriter, resolver LineResolver, log logger.Logger, cfg Config) *Pipeline {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Pipeline{
		pinger:      pinger,
		orders:      orders,
		resolver:    resolver,
		log:         log.Module("ingest"),
		concurrency: cfg.Concurrency,
		recorder:    cfg.Recorder,
	}
}

// Run ingests every order of export under provider.
//
// A failed connectivity check aborts the run before anything is written.
// After that, a failure writing one order, line item or option is logged and
// counted and the run continues. An order whose ID is already stored is
// skipped with its line items. Line items whose names fail to resolve are
// stored without canonical IDs.
func (p *Pipeline) Run(ctx context.Context, export *Export, provider string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.NewString(), Provider: provider}
	ctx = logger.WithTraceID(ctx, sum.RunID)
	log := p.log.WithContext(ctx).With(
		logger.String("run_id", sum.RunID),
		logger.String("provider", provider))

	if err := p.pinger.Ping(ctx); err != nil {
		p.recordRun(provider, RunAborted, start)
		log.Error("store connectivity check failed, aborting ingest", logger.Error(err))
		return sum, errors.New(fmt.Errorf("ingest aborted: store unreachable: %w", err)).
			Component("ingest").
			Category(errors.CategoryDatabase).
			Priority(errors.PriorityHigh).
			Context("run_id", sum.RunID).
			Context("provider", provider).
			Build()
	}

	var orders []*ExportOrder
	if export != nil {
		orders = export.Orders
	}
	sum.Orders = len(orders)
	log.Info("ingest started",
		logger.Int("orders", len(orders)),
		logger.Int("concurrency", p.concurrency))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, order := range orders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := p.processOrder(gctx, log, order.ToEntities(provider))
			mu.Lock()
			sum.add(res)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	sum.Duration = time.Since(start)

	if err != nil {
		p.recordRun(provider, RunCanceled, start)
		log.Warn("ingest interrupted",
			logger.Int("orders_saved", sum.OrdersSaved),
			logger.Error(err))
		return sum, errors.New(fmt.Errorf("ingest interrupted: %w", err)).
			Component("ingest").
			Category(errors.CategoryCancellation).
			Context("run_id", sum.RunID).
			Build()
	}

	p.recordRun(provider, RunCompleted, start)
	log.Info("ingest completed",
		logger.Int("orders_saved", sum.OrdersSaved),
		logger.Int("orders_skipped", sum.OrdersSkipped),
		logger.Int("orders_failed", sum.OrdersFailed),
		logger.Int("line_items_saved", sum.LineItemsSaved),
		logger.Int("line_items_failed", sum.LineItemsFailed),
		logger.Int("options_failed", sum.OptionsFailed),
		logger.Int("resolution_failures", sum.ResolutionFailures),
		logger.Duration("duration", sum.Duration))
	return sum, nil
}

// orderResult is the per-order share of a Summary.
type orderResult struct {
	saved, skipped, failed      bool
	linesSaved, linesFailed     int
	optionsSaved, optionsFailed int
	resolutionFailures          int
}

func (s *Summary) add(r orderResult) {
	switch {
	case r.saved:
		s.OrdersSaved++
	case r.skipped:
		s.OrdersSkipped++
	case r.failed:
		s.OrdersFailed++
	}
	s.LineItemsSaved += r.linesSaved
	s.LineItemsFailed += r.linesFailed
	s.OptionsSaved += r.optionsSaved
	s.OptionsFailed += r.optionsFailed
	s.ResolutionFailures += r.resolutionFailures
}

func (p *Pipeline) processOrder(ctx context.Context, log logger.Logger, order *entities.Order) orderResult {
	var res orderResult
	log = log.With(logger.String("order_id", order.OrderID))

	lines := order.LineItems
	order.LineItems = nil
	if err := p.orders.SaveOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			res.skipped = true
			p.record(RecordOrder, OutcomeSkipped)
			log.Debug("order already ingested, skipping")
			return res
		}
		res.failed = true
		p.record(RecordOrder, OutcomeFailed)
		log.Error("failed to save order", logger.Error(err))
		return res
	}
	res.saved = true
	p.record(RecordOrder, OutcomeSaved)

	for i := range lines {
		line := &lines[i]
		options := line.Options
		line.Options = nil

		itemID, categoryID, err := p.resolver.ResolveLineItem(ctx, line.Name, line.Category)
		if err != nil {
			res.resolutionFailures++
			log.Warn("line item name resolution failed, storing without canonical ids",
				logger.String("line_item_id", line.LineItemID),
				logger.String("name", line.Name),
				logger.String("category", line.Category),
				logger.Error(err))
		}
		line.CanonicalItemID = itemID
		line.CanonicalCategoryID = categoryID

		if err := p.orders.SaveLineItem(ctx, line); err != nil {
			res.linesFailed++
			p.record(RecordLineItem, OutcomeFailed)
			log.Error("failed to save line item",
				logger.String("line_item_id", line.LineItemID),
				logger.Error(err))
			continue
		}
		res.linesSaved++
		p.record(RecordLineItem, OutcomeSaved)

		for j := range options {
			opt := &options[j]
			if err := p.orders.SaveOption(ctx, opt); err != nil {
				res.optionsFailed++
				p.record(RecordOption, OutcomeFailed)
				log.Error("failed to save line item option",
					logger.String("line_item_id", line.LineItemID),
					logger.String("option", opt.Name),
					logger.Error(err))
				continue
			}
			res.optionsSaved++
			p.record(RecordOption, OutcomeSaved)
		}
	}
	return res
}

func (p *Pipeline) record(record, outcome string) {
	if p.recorder != nil {
		p.recorder.RecordIngested(record, outcome)
	}
}

func (p *Pipeline) recordRun(provider, status string, start time.Time) {
	if p.recorder != nil {
		p.recorder.RecordIngestRun(provider, status, time.Since(start))
	}
}
