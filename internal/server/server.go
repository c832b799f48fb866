package server

import (
	"context"
	"net/http"
	"time"

	"github.com/brightstack/coursekart/internal/catalog"
	catalogdomain "github.com/brightstack/coursekart/internal/catalog/domain"
	"github.com/brightstack/coursekart/internal/config"
	"github.com/brightstack/coursekart/internal/gateway"
	"github.com/brightstack/coursekart/internal/identity"
	identitydomain "github.com/brightstack/coursekart/internal/identity/domain"
	"github.com/brightstack/coursekart/internal/identity/session"
	"github.com/brightstack/coursekart/internal/ledger"
	"github.com/brightstack/coursekart/internal/notification"
	"github.com/brightstack/coursekart/internal/observability"
	obsmiddleware "github.com/brightstack/coursekart/internal/observability/logger"
	"github.com/brightstack/coursekart/internal/providers/email"
	"github.com/brightstack/coursekart/internal/providers/pdf"
	"github.com/brightstack/coursekart/internal/ratelimit"
	"github.com/brightstack/coursekart/internal/settlement"
	settlementdomain "github.com/brightstack/coursekart/internal/settlement/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	identity.Module,
	catalog.Module,
	ledger.Module,
	gateway.Module,
	email.Module,
	pdf.Module,
	notification.Module,
	settlement.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log, obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger) *gin.Engine {
	return NewEngine(obsCfg, log)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
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
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	sessions        *session.Manager
	identitySvc     identitydomain.Service
	catalogSvc      catalogdomain.Service
	settlementSvc   settlementdomain.Service
	checkoutLimiter *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Sessions        *session.Manager
	IdentitySvc     identitydomain.Service
	CatalogSvc      catalogdomain.Service
	SettlementSvc   settlementdomain.Service
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		sessions:        p.Sessions,
		identitySvc:     p.IdentitySvc,
		catalogSvc:      p.CatalogSvc,
		settlementSvc:   p.SettlementSvc,
		checkoutLimiter: p.CheckoutLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.SignUp)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	products := api.Group("/products")
	products.GET("", s.OptionalAuth(), s.ListProducts)
	products.GET("/:id", s.OptionalAuth(), s.GetProduct)
	products.POST("", s.AuthRequired(), s.RequireAdmin(), s.CreateProduct)
	products.PATCH("/:id", s.AuthRequired(), s.RequireAdmin(), s.UpdateProduct)
	products.POST("/:id/archive", s.AuthRequired(), s.RequireAdmin(), s.ArchiveProduct)

	orders := api.Group("/orders", s.AuthRequired())
	orders.GET("", s.ListOrders)
	orders.POST("/initiate", s.CheckoutRateLimit(), s.InitiateOrder)
	orders.POST("/claim-free", s.ClaimFreeOrder)
	orders.POST("/confirm", s.CheckoutRateLimit(), s.ConfirmOrder)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/payment-gateway", s.PaymentWebhook)
}
