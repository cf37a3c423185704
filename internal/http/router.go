// Package httpapi assembles the Gin engine: global middleware, operational
// endpoints (/health, /metrics, /swagger) and the versioned RFQ API.
//
// Global chain, outermost first:
//
//	otelgin -> RequestID -> RedactingLogger -> Recovery -> body limit
//	-> HTTP metrics -> CORS -> security headers
//
// The API group adds:
//
//	Authenticate -> IdempotencyValidator -> RateLimiter -> gzip -> RequireRole
//
// IdempotencyValidator runs before the limiter so a replayed write is never
// rejected with 429.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/auth"
	"github.com/tbourn/go-rfq-backend/internal/config"
	_ "github.com/tbourn/go-rfq-backend/internal/docs"
	"github.com/tbourn/go-rfq-backend/internal/http/handlers"
	"github.com/tbourn/go-rfq-backend/internal/http/middleware"
	"github.com/tbourn/go-rfq-backend/internal/repo"
	"github.com/tbourn/go-rfq-backend/internal/scheduler"
	"github.com/tbourn/go-rfq-backend/internal/services"
)

const maxBodyBytes = 1 << 20

// Services bundles the application services served over HTTP.
type Services struct {
	RFQs        *services.RFQService
	Quotations  *services.QuotationService
	Negotiation *services.NegotiationService
	// Sweeper drives RFQs.ExpirySweep for both the schedule and the admin
	// endpoint. It is not started here.
	Sweeper *scheduler.ExpirySweeper
}

// NewServices builds the services on db. Events go to n after each commit.
// The sweeper is scheduled only when cfg.Sweep.Enabled is set.
func NewServices(db *gorm.DB, n services.Notifier, cfg config.Config) (Services, error) {
	rfqs := services.NewRFQService(db, n)
	quotes := services.NewQuotationService(db, n)
	if cfg.MaxPageSize > 0 {
		rfqs.MaxPageSize = cfg.MaxPageSize
		quotes.MaxPageSize = cfg.MaxPageSize
	}
	schedule := ""
	if cfg.Sweep.Enabled {
		schedule = cfg.Sweep.Schedule
	}
	sweeper, err := scheduler.NewExpirySweeper(rfqs, schedule, cfg.Sweep.Timeout)
	if err != nil {
		return Services{}, err
	}
	return Services{
		RFQs:        rfqs,
		Quotations:  quotes,
		Negotiation: services.NewNegotiationService(db, n),
		Sweeper:     sweeper,
	}, nil
}

// RegisterRoutes installs the middleware chain and every endpoint on r. The
// API is mounted under cfg.APIBasePath.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, svc Services) {
	r.HandleMethodNotAllowed = true

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{}),
		middleware.Recovery(),
		limitBody(maxBodyBytes),
		middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Handler(),
	)
	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(svc.RFQs, svc.Quotations, svc.Negotiation, db, cfg.IdempotencyTTL)
	if cfg.MaxPageSize > 0 {
		h.MaxPageSize = cfg.MaxPageSize
	}
	if svc.Sweeper != nil {
		h.Sweeper = svc.Sweeper
	}
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByCaller(), auth.RoleAdmin)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Authenticate(auth.FromConfig(cfg.Auth)),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, idempotencyLookup(db)),
		limiter.Handler(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	mountAPI(api, h)
}

func mountAPI(api *gin.RouterGroup, h *handlers.Handlers) {
	buyer := middleware.RequireRole(auth.RoleBuyer)
	vendor := middleware.RequireRole(auth.RoleVendor)

	rfq := api.Group("/rfq")
	rfq.POST("", buyer, h.CreateRFQ)
	rfq.GET("", h.ListRFQs)
	rfq.GET("/:id", h.GetRFQ)
	rfq.PATCH("/:id/status", buyer, h.UpdateRFQStatus)
	rfq.PATCH("/:id/deadline", buyer, h.ExtendDeadline)
	rfq.GET("/:id/summary", h.RFQSummary)
	rfq.GET("/:id/quotations", h.ListQuotations)

	quotes := rfq.Group("/quotations")
	quotes.POST("", vendor, h.SubmitQuotation)
	quotes.GET("/my-quotations", vendor, h.ListMyQuotations)
	quotes.GET("/:id", h.GetQuotation)
	quotes.PUT("/:id", vendor, h.ReviseQuotation)
	quotes.GET("/:id/revisions", h.ListQuotationRevisions)
	quotes.PATCH("/:id/accept", buyer, h.AcceptQuotation)
	quotes.PATCH("/:id/reject", buyer, h.RejectQuotation)
	quotes.PATCH("/:id/withdraw", vendor, h.WithdrawQuotation)

	admin := api.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	admin.POST("/rfq/expiry-sweep", h.RunExpirySweep)
}

// idempotencyLookup reports whether db holds a live result for the key.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

// corsHandlers allows every origin when origins is empty, otherwise only the
// listed ones. Credentials are never allowed.
func corsHandlers(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			auth.HeaderUserID, auth.HeaderUserRole, middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	// cors skips requests without an Origin and same-host origins, so the
	// allow header is set here first.
	if len(origins) > 0 {
		cc.AllowOrigins = origins
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		echo := func(c *gin.Context) {
			if o := c.GetHeader("Origin"); allowed[o] {
				c.Header("Access-Control-Allow-Origin", o)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		}
		return []gin.HandlerFunc{echo, cors.New(cc)}
	}

	cc.AllowAllOrigins = true
	wildcard := func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
	return []gin.HandlerFunc{wildcard, cors.New(cc)}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
