package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/milechy/ultra-autotrade-project/internal/monitoring"
	"github.com/milechy/ultra-autotrade-project/internal/reporting"
)

const (
	defaultLookbackHours = 1
	maxLookbackHours     = 24
	defaultEventLimit    = 50
	maxEventLimit        = 1000
)

// Handler serves the automation HTTP endpoints.
type Handler struct {
	monitor  *monitoring.Service
	reporter *reporting.Service
	logger   zerolog.Logger
}

// NewHandler wires the handler to the monitoring and reporting services.
func NewHandler(monitor *monitoring.Service, reporter *reporting.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		monitor:  monitor,
		reporter: reporter,
		logger:   logger.With().Str("component", "http_handler").Logger(),
	}
}

// Register installs all routes on the engine.
func (h *Handler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.health)

	automation := engine.Group("/automation")
	automation.GET("/dashboard", h.dashboard)
	automation.GET("/status", h.status)
	automation.GET("/events", h.events)
	automation.GET("/reports/latest", h.latestReport)
	automation.POST("/emergency-stop", h.emergencyStop)
	automation.POST("/emergency-stop/clear", h.clearEmergencyStop)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) dashboard(c *gin.Context) {
	hours := defaultLookbackHours
	if raw := c.Query("lookback_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLookbackHours {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lookback_hours must be an integer between 1 and 24"})
			return
		}
		hours = parsed
	}

	snapshot := h.monitor.BuildDashboardSnapshot(time.Duration(hours)*time.Hour, time.Now().UTC())
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.GetStatus())
}

func (h *Handler) events(c *gin.Context) {
	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxEventLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 1000"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"events": h.monitor.GetRecentEvents(limit)})
}

func (h *Handler) latestReport(c *gin.Context) {
	period := reporting.PeriodDaily
	if raw := c.Query("period"); raw != "" {
		switch reporting.Period(raw) {
		case reporting.PeriodDaily, reporting.PeriodWeekly:
			period = reporting.Period(raw)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "period must be daily or weekly"})
			return
		}
	}

	summary := h.reporter.GenerateSummaryReport(period, time.Now().UTC())
	c.JSON(http.StatusOK, summary)
}

type emergencyStopRequest struct {
	Reason    string `json:"reason" binding:"required"`
	Component string `json:"component"`
}

func (h *Handler) emergencyStop(c *gin.Context) {
	var req emergencyStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	component := monitoring.ComponentSystem
	if req.Component != "" {
		parsed, err := monitoring.ParseComponentType(req.Component)
		if err != nil {
			h.logger.Warn().Str("component", req.Component).Msg("unknown component on emergency stop; using system")
		} else {
			component = parsed
		}
	}

	h.monitor.ActivateEmergencyStop(req.Reason, component, time.Now().UTC())
	h.logger.Warn().Str("reason", req.Reason).Msg("emergency stop requested via http")
	c.JSON(http.StatusOK, h.monitor.GetStatus())
}

func (h *Handler) clearEmergencyStop(c *gin.Context) {
	h.monitor.ClearEmergencyStop()
	h.logger.Info().Msg("emergency stop cleared via http")
	c.JSON(http.StatusOK, h.monitor.GetStatus())
}
