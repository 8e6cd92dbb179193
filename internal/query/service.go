package query

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/logger"
)

// DefaultTimeout bounds plan execution when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Query outcome labels reported to the Recorder.
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusError    = "error"
	StatusTimeout  = "timeout"
	StatusCanceled = "canceled"
)

// PlanRunner executes a compiled plan and returns the raw rows.
type PlanRunner interface {
	RunPlan(ctx context.Context, plan *Plan) ([]map[string]any, error)
}

// Recorder receives query outcomes. A nil Recorder is allowed.
type Recorder interface {
	RecordQuery(metric, status string, duration time.Duration)
}

// GormRunner runs plans on a GORM database.
type GormRunner struct {
	db *gorm.DB
}

// NewGormRunner returns a runner bound to db.
func NewGormRunner(db *gorm.DB) *GormRunner {
	return &GormRunner{db: db}
}

// RunPlan executes plan within ctx.
func (r *GormRunner) RunPlan(ctx context.Context, plan *Plan) ([]map[string]any, error) {
	var rows []map[string]any
	if err := plan.Apply(r.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ServiceConfig holds Service settings.
type ServiceConfig struct {
	Timeout  time.Duration
	Recorder Recorder
}

// Service answers intents end to end: validate, compile, run, transform.
type Service struct {
	validator *Validator
	compiler  *Compiler
	runner    PlanRunner
	timeout   time.Duration
	recorder  Recorder
	log       logger.Logger
}

// NewService wires the query pipeline.
func NewService(v *Validator, c *Compiler, runner PlanRunner, log logger.Logger, cfg ServiceConfig) *Service {
	if v == nil {
		v = NewValidator()
	}
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Service{
		validator: v,
		compiler:  c,
		runner:    runner,
		timeout:   cfg.Timeout,
		recorder:  cfg.Recorder,
		log:       log.Module("query"),
	}
}

// Compile validates and compiles intent without running it.
func (s *Service) Compile(intent *Intent) (*Plan, error) {
	if err := s.validator.Validate(intent); err != nil {
		return nil, err
	}
	return s.compiler.Compile(intent)
}

// Run answers intent. Validation and compilation happen before any store
// access; execution is bounded by the configured timeout.
func (s *Service) Run(ctx context.Context, intent *Intent) (*Result, error) {
	start := time.Now()

	plan, err := s.Compile(intent)
	if err != nil {
		s.record(intent, StatusInvalid, start)
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.runner.RunPlan(runCtx, plan)
	if err != nil {
		status, category := StatusError, errors.CategoryQuery
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded):
			status, category = StatusTimeout, errors.CategoryTimeout
		case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
			status, category = StatusCanceled, errors.CategoryCancellation
		}
		s.record(intent, status, start)
		s.log.Error("query execution failed",
			logger.String("metric", string(intent.Metric)),
			logger.String("status", status),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, errors.New(fmt.Errorf("run %s query: %w", intent.Metric, err)).
			Component("query").
			Category(category).
			Context("metric", string(intent.Metric)).
			Timing("query_execution", time.Since(start)).
			Build()
	}

	s.record(intent, StatusOK, start)
	s.log.Debug("query executed",
		logger.String("metric", string(intent.Metric)),
		logger.Int("rows", len(rows)),
		logger.Duration("elapsed", time.Since(start)))

	return &Result{
		Metric:  intent.Metric,
		GroupBy: plan.GroupBy,
		Rows:    Transform(rows, plan.GroupBy),
	}, nil
}

func (s *Service) record(intent *Intent, status string, start time.Time) {
	if s.recorder == nil {
		return
	}
	metric := "unknown"
	if intent != nil && intent.Metric != "" {
		metric = string(intent.Metric)
	}
	s.recorder.RecordQuery(metric, status, time.Since(start))
}
