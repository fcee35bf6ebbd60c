package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storemirror/backend/internal/infrastructure/logger"
	"github.com/storemirror/backend/internal/interfaces/http/handler"
	"github.com/storemirror/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the handlers served by the API
type Handlers struct {
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Jobs     *handler.JobHandler
	Health   *handler.HealthHandler
}

// EngineConfig configures the gin engine and its middleware stack
type EngineConfig struct {
	Logger         *zap.Logger
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Tracing        middleware.TracingConfig
	// Meter enables HTTP metrics when set
	Meter metric.Meter
}

// NewEngine builds the gin engine with the middleware stack and all API routes.
//
// Middleware order:
//  1. RequestID - generate/propagate request ID
//  2. Tracing, SpanAttributes - request span
//  3. Recovery - catch panics
//  4. GinMiddleware - request logging
//  5. HTTPMetrics
//  6. Secure, CORS
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.RequestID())
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(cfg.CORS))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", h.Health.Check)

	r := NewRouter(engine, WithAPIVersion("v1"))

	orderRoutes := NewDomainGroup("orders", "/orders").
		GET("", h.Orders.List).
		GET("/:oid", h.Orders.GetByOID)

	productRoutes := NewDomainGroup("products", "/products").
		GET("", h.Products.List)

	jobRoutes := NewDomainGroup("jobs", "/jobs").
		GET("", h.Jobs.History).
		POST("/sync", h.Jobs.TriggerSync).
		POST("/cleanup", h.Jobs.TriggerCleanup)

	r.Register(orderRoutes).
		Register(productRoutes).
		Register(jobRoutes)
	r.Setup()

	return engine
}
