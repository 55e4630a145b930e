package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/audit"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/brand"
	branddomain "github.com/smallbiznis/storefront/internal/brand/domain"
	"github.com/smallbiznis/storefront/internal/cache"
	"github.com/smallbiznis/storefront/internal/client"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/product"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/receipt"
	"github.com/smallbiznis/storefront/internal/upload"
	"github.com/smallbiznis/storefront/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	telemetry.Module,
	cache.Module,
	ratelimit.Module,
	upload.Module,
	receipt.Module,
	audit.Module,
	client.Module,
	brand.Module,
	product.Module,
	order.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
	Telemetry   *telemetry.Metrics      `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(obsmetrics.GinMiddleware(p.HTTPMetrics))
	}
	r.Use(telemetry.GinMiddleware(p.Telemetry))
	r.Use(ClientContext())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(p EngineParams) *gin.Engine {
	return NewEngine(p)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	orderSvc   orderdomain.Service
	clientSvc  clientdomain.Service
	productSvc productdomain.Service
	brandSvc   branddomain.Service
	auditSvc   auditdomain.Service
	storage    *upload.Storage
	receipts   receipt.Renderer
	limiter    *ratelimit.CheckoutLimiter
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	OrderSvc   orderdomain.Service
	ClientSvc  clientdomain.Service
	ProductSvc productdomain.Service
	BrandSvc   branddomain.Service
	AuditSvc   auditdomain.Service
	Storage    *upload.Storage
	Receipts   receipt.Renderer
	Limiter    *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		orderSvc:   p.OrderSvc,
		clientSvc:  p.ClientSvc,
		productSvc: p.ProductSvc,
		brandSvc:   p.BrandSvc,
		auditSvc:   p.AuditSvc,
		storage:    p.Storage,
		receipts:   p.Receipts,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}

	svc.registerUploads()
	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerUploads() {
	if s.storage == nil {
		return
	}
	base := s.storage.PublicBase()
	// Absolute URLs point at an external host that serves the files itself.
	if !strings.HasPrefix(base, "/") || strings.HasPrefix(base, "//") {
		return
	}
	s.engine.Static(base, s.storage.Root())
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(StorefrontActor())

	// -------- Catalog --------
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.GET("/brands", s.ListBrands)
	api.GET("/brands/:id", s.GetBrandByID)

	// -------- Orders --------
	api.POST("/orders", s.CreateOrder)
	api.POST("/checkout", s.CheckoutRateLimit(), s.Checkout)
	api.GET("/orders/:id", s.GetOrderByID)
	api.POST("/orders/:id/payment-proof", s.UploadPaymentProof)
	api.GET("/orders/:id/receipt.pdf", s.RenderOrderReceipt)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AdminRequired())

	// -------- Orders --------
	admin.GET("/orders", s.ListOrders)
	admin.GET("/orders/stats", s.GetOrderStats)
	admin.GET("/orders/:id", s.GetOrderByID)
	admin.PUT("/orders/:id/status", s.UpdateOrderStatus)
	admin.GET("/orders/:id/history", s.GetOrderHistory)
	admin.GET("/orders/:id/receipt.pdf", s.RenderOrderReceipt)

	// -------- Clients --------
	admin.GET("/clients", s.ListClients)
	admin.POST("/clients", s.CreateClient)
	admin.GET("/clients/:id", s.GetClientByID)

	// -------- Products --------
	admin.GET("/products", s.ListProducts)
	admin.POST("/products", s.CreateProduct)
	admin.GET("/products/:id", s.GetProductByID)
	admin.PATCH("/products/:id/price", s.UpdateProductPrice)
	admin.PATCH("/products/:id/stock", s.UpdateProductStock)
	admin.DELETE("/products/:id", s.DeleteProduct)

	// -------- Brands --------
	admin.GET("/brands", s.ListBrands)
	admin.POST("/brands", s.CreateBrand)
	admin.GET("/brands/:id", s.GetBrandByID)
	admin.DELETE("/brands/:id", s.DeleteBrand)

	admin.GET("/audit-logs", s.ListAuditLogs)
}
