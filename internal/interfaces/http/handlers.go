package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/service"
	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	domainwf "github.com/garyjia/travel-approval/internal/domain/workflow"
)

// ActorHeader carries the acting user's id; authentication happens upstream
const ActorHeader = "X-User-ID"

const actorKey = "actor_id"

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine        workflow.Workflow
	notifications service.NotificationService
	exports       service.ExportService
	health        HealthReporter
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine workflow.Workflow,
	notifications service.NotificationService,
	exports service.ExportService,
	health HealthReporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		engine:        engine,
		notifications: notifications,
		exports:       exports,
		health:        health,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// Version is reported by the health endpoint
var Version = "dev"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, components := h.health.Healthy()
		response.Components = components
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// requireActor resolves the acting user from ActorHeader
func (h *Handlers) requireActor(c *gin.Context) {
	raw := c.GetHeader(ActorHeader)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
			Success: false,
			Error:   "missing or invalid " + ActorHeader + " header",
		})
		return
	}
	c.Set(actorKey, id)
	c.Next()
}

func actorFrom(c *gin.Context) workflow.Actor {
	return workflow.Actor{
		UserID:    c.GetInt64(actorKey),
		IPAddress: c.ClientIP(),
	}
}

// pathID parses a positive integer path parameter, writing a 400 on failure
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid " + name + ": " + raw,
		})
		return 0, false
	}
	return id, true
}

// statusFor maps workflow errors onto HTTP status codes
func statusFor(err error) int {
	var verr *entity.ValidationError
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainwf.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domainwf.ErrInvalidState),
		errors.Is(err, domainwf.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, domainwf.ErrInvalidInput), errors.As(err, &verr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope; internal errors are logged and not echoed
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "operation", op, "error", err)
		message = op + " failed"
	}

	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body: " + err.Error(),
	})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}
