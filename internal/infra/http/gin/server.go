package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"seabook/internal/infra/config"
	"seabook/internal/infra/obs"
)

type QuoteHTTP interface {
	Create(c *gin.Context)
}

type BookingHTTP interface {
	Hold(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Get(c *gin.Context)
}

type AdminHTTP interface {
	GetConfig(c *gin.Context)
	SetBaseFare(c *gin.Context)
	SetCabinMultiplier(c *gin.Context)
	SetDemandMultiplier(c *gin.Context)
	ListRules(c *gin.Context)
	UpsertRule(c *gin.Context)
	UpsertRulesBulk(c *gin.Context)
	DeleteRule(c *gin.Context)
	ExportRulesCSV(c *gin.Context)
	SetFxRate(c *gin.Context)
	DeleteFxRate(c *gin.Context)
	ListCategories(c *gin.Context)
	UpsertCategory(c *gin.Context)
	DeleteCategory(c *gin.Context)
	SetCapacity(c *gin.Context)
	BucketCounts(c *gin.Context)
}

type Handlers struct {
	Quote           QuoteHTTP
	Booking         BookingHTTP
	Admin           AdminHTTP
	AdminMiddleware gin.HandlerFunc
	DefaultTenant   string
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	router := NewRouter(cfg, obsMW, health, h)
	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

// NewRouter assembles the gin engine; split from NewServer so handler tests
// can drive it directly.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Tenant-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	registerDocsRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.Use(tenantMiddleware(h.DefaultTenant))
	if h.Quote != nil {
		api.POST("/quotes", h.Quote.Create)
	}
	if h.Booking != nil {
		api.POST("/bookings/hold", h.Booking.Hold)
		api.GET("/bookings/:id", h.Booking.Get)
		api.POST("/bookings/:id/confirm", h.Booking.Confirm)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		if h.AdminMiddleware != nil {
			admin.Use(h.AdminMiddleware)
		}
		admin.GET("/pricing/config", h.Admin.GetConfig)
		admin.PUT("/pricing/base-fares/:pax", h.Admin.SetBaseFare)
		admin.PUT("/pricing/cabin-multipliers/:cabin", h.Admin.SetCabinMultiplier)
		admin.PUT("/pricing/demand-multiplier", h.Admin.SetDemandMultiplier)
		admin.GET("/pricing/rules", h.Admin.ListRules)
		admin.POST("/pricing/rules", h.Admin.UpsertRule)
		admin.POST("/pricing/rules/bulk", h.Admin.UpsertRulesBulk)
		admin.DELETE("/pricing/rules", h.Admin.DeleteRule)
		admin.GET("/pricing/rules/export", h.Admin.ExportRulesCSV)
		admin.PUT("/pricing/fx", h.Admin.SetFxRate)
		admin.DELETE("/pricing/fx", h.Admin.DeleteFxRate)
		admin.GET("/pricing/categories", h.Admin.ListCategories)
		admin.PUT("/pricing/categories", h.Admin.UpsertCategory)
		admin.DELETE("/pricing/categories/:code", h.Admin.DeleteCategory)
		admin.PUT("/inventory/:sailing/:bucket/capacity", h.Admin.SetCapacity)
		admin.GET("/inventory/:sailing/:bucket", h.Admin.BucketCounts)
	}

	return router
}

const tenantContextKey = "tenant_id"

// tenantMiddleware resolves the tenant from the X-Tenant-ID header, falling
// back to the configured default so single-tenant deployments need no header.
func tenantMiddleware(defaultTenant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.GetHeader("X-Tenant-ID"))
		if tenant == "" {
			tenant = defaultTenant
		}
		if tenant == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header is required"})
			return
		}
		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantContextKey)
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
