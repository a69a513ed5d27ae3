package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/aistone/edge-backend/docs"
	"github.com/aistone/edge-backend/internal/api/handler"
	"github.com/aistone/edge-backend/internal/api/middleware"
	"github.com/aistone/edge-backend/internal/core/ports"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth      ports.AuthService
	Feedback  ports.FeedbackService
	Readiness map[string]handler.PingFunc
	Log       zerolog.Logger

	ExposeResetURL bool
	AdminKey       string

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer = d.Registry
		gatherer = prometheus.Gatherers{d.Registry, prometheus.DefaultGatherer}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Metrics sit outside the logger so they see the status written by the error handler.
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "edge",
		Registerer: registerer,
	}))
	e.Use(middleware.RequestLogger(d.Log))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.ExposeResetURL)
	feedbackHandler := handler.NewFeedbackHandler(d.Feedback)
	authMiddleware := middleware.Auth(d.Auth)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/validate", authHandler.Validate, authMiddleware)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/google-login", authHandler.GoogleLogin)
	auth.POST("/google-oauth", authHandler.GoogleOAuth)
	auth.GET("/google/config", authHandler.GoogleConfig)

	// --- Feedback routes ---
	feedback := e.Group("/api/feedback", authMiddleware)
	feedback.POST("", feedbackHandler.Submit)
	feedback.GET("", feedbackHandler.List)
	feedback.GET("/my", feedbackHandler.List)

	e.GET("/api/admin/feedback", feedbackHandler.ListAll, middleware.AdminKey(d.AdminKey))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
