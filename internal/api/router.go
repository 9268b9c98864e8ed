package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/jingally/booking-system/internal/api/handler"
	"github.com/jingally/booking-system/internal/api/middleware"
	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
	"github.com/jingally/booking-system/internal/infrastructure/http/handlers"
)

// Deps groups everything the router needs to serve requests.
type Deps struct {
	Shipments   ports.ShipmentService
	PriceGuides ports.PriceGuideService
	Auth        ports.AuthService
	Media       ports.MediaReader

	// Checks are the readiness probes served on /health/ready.
	Checks map[string]handlers.Check

	JWTSecret string
	Logger    zerolog.Logger

	// Registry receives the HTTP metrics. Nil uses the Prometheus default
	// registry, which also holds the collectors of internal/pkg/metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "booking",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	shipmentHandler := handler.NewShipmentHandler(d.Shipments)
	adminHandler := handler.NewAdminHandler(d.Shipments)
	priceGuideHandler := handler.NewPriceGuideHandler(d.PriceGuides)
	authHandler := handler.NewAuthHandler(d.Auth)
	mediaHandler := handler.NewMediaHandler(d.Media)
	authMiddleware := middleware.Auth(d.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Operational routes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/verify-email", authHandler.VerifyEmail)
	e.POST("/auth/resend-verification", authHandler.ResendVerification)

	// --- Public routes ---
	e.GET("/price-guides", priceGuideHandler.List)
	e.GET("/media/:id", mediaHandler.Get)
	e.GET("/shipments/track/:trackingNumber", shipmentHandler.Track)

	// --- Shipment routes (authenticated) ---
	shipments := e.Group("/shipments", authMiddleware)
	shipments.POST("", shipmentHandler.Create)
	shipments.GET("", shipmentHandler.List)
	shipments.POST("/assign-driver", adminHandler.AssignDriver, adminOnly)
	shipments.POST("/assign-container", adminHandler.AssignContainer, adminOnly)
	shipments.GET("/:id", shipmentHandler.Get)
	shipments.PATCH("/:id/status", shipmentHandler.UpdateStatus)
	shipments.PATCH("/:id/payment-status", shipmentHandler.UpdatePayment)
	shipments.PATCH("/:id/package-dimensions", shipmentHandler.UpdateDimensions)
	shipments.PATCH("/:id/delivery-address", shipmentHandler.UpdateAddress)
	shipments.PATCH("/:id/pickup-date-time", shipmentHandler.SchedulePickup)
	shipments.PATCH("/:id/photos", shipmentHandler.UploadPhotos, echomiddleware.BodyLimit(handler.PhotoBodyLimit))
	shipments.POST("/:id/cancel", shipmentHandler.Cancel)
	shipments.PUT("/:id/cancel", shipmentHandler.Cancel)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, adminOnly)
	admin.POST("/shipments", adminHandler.CreateShipment)
	admin.GET("/shipments", shipmentHandler.List)
	admin.GET("/shipments/:id", shipmentHandler.Get)
	admin.PUT("/shipments/:id/status", shipmentHandler.UpdateStatus)
	admin.PUT("/shipments/:id/package-dimensions", shipmentHandler.UpdateDimensions)
	admin.GET("/dashboard/stats", adminHandler.DashboardStats)
	admin.POST("/price-guides", priceGuideHandler.Create)

	return e
}

// requestLogger writes one access log line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
