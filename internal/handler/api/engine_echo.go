package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ConsensusBot/internal/domain/models"
	"ConsensusBot/internal/service/ratelimit"
	"ConsensusBot/internal/usecase"
	xhttp "ConsensusBot/pkg/http"
	xlogger "ConsensusBot/pkg/logger"
)

// EngineService is the slice of the engine the control API drives.
type EngineService interface {
	Start() error
	Stop()
	Status() models.EngineStatus
	Config() models.EngineConfig
	UpdateConfig(patch models.ConfigPatch) (models.EngineConfig, error)
	Performance() models.PerformanceSnapshot
	RecentSignals(n int) []models.Signal
	DetailedStats() models.DetailedStats
}

var _ EngineService = (*usecase.Engine)(nil)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// EngineEchoHandler exposes engine control and read endpoints over Echo.
type EngineEchoHandler struct {
	engine  EngineService
	trades  *usecase.TradesUseCase
	logger  *xlogger.Logger
	limiter *ratelimit.Limiter
	checks  map[string]HealthCheck
	now     func() time.Time
}

type HandlerOption func(*EngineEchoHandler)

// WithTrades enables GET /api/trades.
func WithTrades(uc *usecase.TradesUseCase) HandlerOption {
	return func(h *EngineEchoHandler) { h.trades = uc }
}

// WithControlLimit throttles start, stop and config changes per client IP.
func WithControlLimit(rps float64, burst int) HandlerOption {
	return func(h *EngineEchoHandler) {
		if rps > 0 {
			h.limiter = ratelimit.New(rps, burst)
		}
	}
}

// WithHealthCheck adds a named dependency to /healthz.
func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *EngineEchoHandler) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

func NewEngineEchoHandler(logger *xlogger.Logger, engine EngineService, opts ...HandlerOption) *EngineEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	h := &EngineEchoHandler{
		engine: engine,
		logger: logger.With("api"),
		checks: make(map[string]HealthCheck),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *EngineEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/engine/start", h.StartEngine, h.throttle)
	g.POST("/engine/stop", h.StopEngine, h.throttle)
	g.GET("/engine/status", h.EngineStatus)
	g.GET("/config", h.GetConfig)
	g.PATCH("/config", h.PatchConfig, h.throttle)
	g.GET("/performance", h.Performance)
	g.GET("/signals", h.Signals)
	g.GET("/stats", h.Stats)
	g.GET("/trades", h.Trades)
}

func (h *EngineEchoHandler) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many control requests"))
		}
		return next(c)
	}
}

func (h *EngineEchoHandler) StartEngine(c echo.Context) error {
	if err := h.engine.Start(); err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyRunning):
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("engine already running"))
		case errors.Is(err, models.ErrEngineClosed):
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("engine closed"))
		}
		h.logger.Error("engine start failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, h.engine.Status())
}

func (h *EngineEchoHandler) StopEngine(c echo.Context) error {
	h.engine.Stop()
	return xhttp.SuccessResponse(c, h.engine.Status())
}

func (h *EngineEchoHandler) EngineStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Status())
}

func (h *EngineEchoHandler) GetConfig(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Config())
}

func (h *EngineEchoHandler) PatchConfig(c echo.Context) error {
	patch := &models.ConfigPatch{}
	if verr := xhttp.ReadAndValidateRequest(c, patch); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	cfg, err := h.engine.UpdateConfig(*patch)
	if err != nil {
		var cerr *models.ConfigError
		if errors.As(err, &cerr) {
			return xhttp.AppErrorResponse(c, configError(cerr))
		}
		h.logger.Error("config update failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func configError(cerr *models.ConfigError) *xhttp.AppError {
	return xhttp.NewAppError("ERR_INVALID_CONFIG", cerr.Field, cerr.Error(), http.StatusBadRequest).
		WithParam("reason", cerr.Reason).
		WithError(cerr)
}

func (h *EngineEchoHandler) Performance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Performance())
}

func (h *EngineEchoHandler) Signals(c echo.Context) error {
	req := &models.RecentSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	signals := h.engine.RecentSignals(req.Count)
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *EngineEchoHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.DetailedStats())
}

func (h *EngineEchoHandler) Trades(c echo.Context) error {
	if !h.trades.Enabled() {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("trade journal disabled"))
	}
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	now := h.now().UTC()
	to := xhttp.ParseTimeDefault(req.To, now)
	from := xhttp.ParseTimeDefault(req.From, to.Add(-24*time.Hour))
	if from.After(to) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from must be <= to"))
	}

	res, err := h.trades.GetTrades(c.Request().Context(), usecase.GetTradesParams{
		Symbol: req.Symbol,
		From:   from,
		To:     to,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("trades query failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("trades query failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

type healthResponse struct {
	Status string            `json:"status"`
	Engine string            `json:"engine"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports ok when every registered check passes; 503 otherwise.
func (h *EngineEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok", Engine: h.engine.Status().State}
	if len(h.checks) > 0 {
		res.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			continue
		}
		res.Checks[name] = "ok"
	}
	if res.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, res)
	}
	return c.JSON(http.StatusOK, res)
}
