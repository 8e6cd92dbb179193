package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/orderlens/internal/logger"
	"github.com/tphakala/orderlens/internal/query"
)

// healthTimeout bounds the store ping of the health check.
const healthTimeout = 3 * time.Second

// QueryRunner answers query intents.
type QueryRunner interface {
	Run(ctx context.Context, intent *query.Intent) (*query.Result, error)
}

// HealthChecker reports store connectivity.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Controller holds the API route handlers.
type Controller struct {
	queries QueryRunner
	health  HealthChecker
	log     logger.Logger
	started time.Time
}

// NewController creates the route handlers.
func NewController(queries QueryRunner, health HealthChecker, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, nil)
	}
	return &Controller{
		queries: queries,
		health:  health,
		log:     log.Module("api"),
		started: time.Now(),
	}
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// HandleQuery answers POST /api/v1/query with a query.Result.
func (c *Controller) HandleQuery(ctx echo.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read request body", http.StatusBadRequest)
	}

	intent, err := query.ParseIntent(body)
	if err != nil {
		return c.HandleError(ctx, err, "Malformed query intent", http.StatusBadRequest)
	}

	result, err := c.queries.Run(ctx.Request().Context(), intent)
	if err != nil {
		status := statusFor(err)
		message := "Query failed"
		if status == http.StatusBadRequest {
			message = "Invalid query intent"
		}
		return c.HandleError(ctx, err, message, status)
	}
	return ctx.JSON(http.StatusOK, result)
}

// HandleHealth answers GET /api/v1/health.
func (c *Controller) HandleHealth(ctx echo.Context) error {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Uptime:   time.Since(c.started).Truncate(time.Second).String(),
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()
	if err := c.health.Ping(pingCtx); err != nil {
		c.log.Warn("health check failed", logger.Error(err))
		resp.Status = "degraded"
		resp.Database = "unreachable"
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	return ctx.JSON(http.StatusOK, resp)
}
