package api

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/internal/metrics"
	"github.com/quranchallenge/server/internal/validation"
	"github.com/quranchallenge/server/usecase"
)

// Dependencies are the services the HTTP surface delegates to
type Dependencies struct {
	Submissions *usecase.SubmissionService
	Queries     *usecase.QueryService
	Auth        *usecase.AuthService
	Validator   *validation.Validator
	Metrics     *metrics.Manager
	Logger      *zap.Logger
}

// Options tune the HTTP surface
type Options struct {
	// StaticDir is served at / when it exists. Empty disables static files.
	StaticDir string
	// RateLimit is requests per second per client IP on POST routes. Zero disables.
	RateLimit float64
}

type handler struct {
	submissions *usecase.SubmissionService
	queries     *usecase.QueryService
	auth        *usecase.AuthService
	logger      *zap.Logger
}

// NewServer builds an echo instance with middleware, error handling and all routes
func NewServer(deps Dependencies, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = deps.Validator
	e.HTTPErrorHandler = httpErrorHandler(deps.Logger)

	e.Use(requestID())
	e.Use(requestLogger(deps.Logger))
	if deps.Metrics != nil {
		e.Use(metricsMiddleware(deps.Metrics))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := &handler{
		submissions: deps.Submissions,
		queries:     deps.Queries,
		auth:        deps.Auth,
		logger:      deps.Logger,
	}
	initRoutes(e, h, opts.RateLimit)

	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			e.Static("/", opts.StaticDir)
		} else {
			deps.Logger.Warn("Static directory not found, static files disabled",
				zap.String("static_dir", opts.StaticDir))
		}
	}

	return e
}

// initRoutes registers all API routes
func initRoutes(e *echo.Echo, h *handler, ratePerSecond float64) {
	limit := rateLimiter(ratePerSecond)

	g := e.Group("/api")

	g.GET("/health", h.health)

	g.POST("/readings", h.submitReading, limit)
	g.POST("/submissions", h.submitReading, limit)
	g.GET("/submissions/:childName", h.childSubmissions)
	g.POST("/historical-entry", h.submitHistoricalEntry, limit)

	g.GET("/leaderboard", h.leaderboard)
	g.GET("/stats", h.stats)

	g.POST("/register", h.register, limit)
	g.POST("/login", h.login, limit)
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Message:   "Quran Challenge API is running!",
		Timestamp: time.Now().UTC(),
	})
}

func (h *handler) submitReading(c echo.Context) error {
	var req ReadingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: msgInvalidBody})
	}

	in := req.toInput(c.RealIP(), c.Request().UserAgent())
	reading, err := h.submissions.SubmitReading(c.Request().Context(), in)
	if err != nil {
		return h.respondError(c, err, "Failed to save reading. Please try again.")
	}

	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: "Reading logged successfully!",
		Data:    reading,
	})
}

func (h *handler) submitHistoricalEntry(c echo.Context) error {
	var in usecase.HistoricalInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: msgInvalidBody})
	}

	entry, err := h.submissions.SubmitHistoricalEntry(c.Request().Context(), in)
	if err != nil {
		return h.respondError(c, err, "Failed to save historical entry. Please try again.")
	}

	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: "Historical entry logged successfully!",
		Data:    entry,
	})
}

func (h *handler) childSubmissions(c echo.Context) error {
	// echo routes on RawPath when it is set, leaving params escaped
	name := c.Param("childName")
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	readings, err := h.submissions.ChildSubmissions(c.Request().Context(), name)
	if err != nil {
		return h.respondError(c, err, "Failed to fetch submissions")
	}
	if readings == nil {
		readings = []*entities.Reading{}
	}

	return c.JSON(http.StatusOK, Response{Success: true, Data: readings})
}

func (h *handler) leaderboard(c echo.Context) error {
	group, err := entities.ParseLeaderboardGroup(c.QueryParam("groupBy"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: "groupBy must be masjid or child"})
	}

	entries, err := h.queries.Leaderboard(c.Request().Context(), group)
	if err != nil {
		return h.respondError(c, err, "Failed to fetch leaderboard")
	}
	if entries == nil {
		entries = []entities.LeaderboardEntry{}
	}

	return c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

func (h *handler) stats(c echo.Context) error {
	stats, err := h.queries.Stats(c.Request().Context())
	if err != nil {
		return h.respondError(c, err, "Failed to fetch statistics")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

func (h *handler) register(c echo.Context) error {
	var in usecase.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: msgInvalidBody})
	}

	res, err := h.auth.Register(c.Request().Context(), in)
	if err != nil {
		return h.respondError(c, err, "Registration failed. Please try again.")
	}

	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: "User registered successfully!",
		Data:    newAuthResponse(res),
	})
}

func (h *handler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Message: msgInvalidBody})
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.respondError(c, err, "Login failed. Please try again.")
	}

	return c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Login successful!",
		Data:    newAuthResponse(res),
	})
}
