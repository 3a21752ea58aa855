package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/rushi-018/saas-imaging/internal/auth"
	"github.com/rushi-018/saas-imaging/internal/authorization"
	billingdomain "github.com/rushi-018/saas-imaging/internal/billing/domain"
	brandkitdomain "github.com/rushi-018/saas-imaging/internal/brandkit/domain"
	"github.com/rushi-018/saas-imaging/internal/config"
	"github.com/rushi-018/saas-imaging/internal/observability"
	obsmiddleware "github.com/rushi-018/saas-imaging/internal/observability/logger"
	obsmetrics "github.com/rushi-018/saas-imaging/internal/observability/metrics"
	obstracing "github.com/rushi-018/saas-imaging/internal/observability/tracing"
	organizationdomain "github.com/rushi-018/saas-imaging/internal/organization/domain"
	"github.com/rushi-018/saas-imaging/internal/ratelimit"
	subscriptiondomain "github.com/rushi-018/saas-imaging/internal/subscription/domain"
	transformdomain "github.com/rushi-018/saas-imaging/internal/transform/domain"
	usagedomain "github.com/rushi-018/saas-imaging/internal/usage/domain"
	videodomain "github.com/rushi-018/saas-imaging/internal/video/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
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
	genID           *snowflake.Node
	verifier        *auth.Verifier
	authzSvc        authorization.Service
	organizationSvc organizationdomain.Service
	orgRepo         organizationdomain.Repository
	subscriptionSvc subscriptiondomain.Service
	billingSvc      billingdomain.Service
	brandKitSvc     brandkitdomain.Service
	videoSvc        videodomain.Service
	transformSvc    transformdomain.Service
	usageSvc        usagedomain.Service
	uploadLimiter   *ratelimit.UploadLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	Verifier        *auth.Verifier
	AuthzSvc        authorization.Service
	OrganizationSvc organizationdomain.Service
	OrgRepo         organizationdomain.Repository
	SubscriptionSvc subscriptiondomain.Service
	BillingSvc      billingdomain.Service
	BrandKitSvc     brandkitdomain.Service
	VideoSvc        videodomain.Service
	TransformSvc    transformdomain.Service
	UsageSvc        usagedomain.Service
	UploadLimiter   *ratelimit.UploadLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		verifier:        p.Verifier,
		authzSvc:        p.AuthzSvc,
		organizationSvc: p.OrganizationSvc,
		orgRepo:         p.OrgRepo,
		subscriptionSvc: p.SubscriptionSvc,
		billingSvc:      p.BillingSvc,
		brandKitSvc:     p.BrandKitSvc,
		videoSvc:        p.VideoSvc,
		transformSvc:    p.TransformSvc,
		usageSvc:        p.UsageSvc,
		uploadLimiter:   p.UploadLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.POST("/organizations", s.CreateOrganization)
	api.GET("/organizations", s.ListOrganizations)

	org := api.Group("", s.OrgContext())
	org.GET("/organization", s.Authorize(authorization.ObjectOrganization, authorization.ActionView), s.GetOrganization)

	org.GET("/members", s.Authorize(authorization.ObjectMember, authorization.ActionView), s.ListMembers)
	org.POST("/members",
		s.Authorize(authorization.ObjectMember, authorization.ActionMemberInvite),
		s.GateLock(gateMembers),
		s.AddMember)
	org.PATCH("/members/:userId", s.Authorize(authorization.ObjectMember, authorization.ActionMemberUpdateRole), s.ChangeMemberRole)
	org.DELETE("/members/:userId", s.Authorize(authorization.ObjectMember, authorization.ActionMemberRemove), s.RemoveMember)

	org.GET("/subscription", s.Authorize(authorization.ObjectSubscription, authorization.ActionView), s.GetSubscription)
	org.POST("/subscription/checkout", s.Authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionCheckout), s.CreateCheckout)
	org.DELETE("/subscription", s.Authorize(authorization.ObjectSubscription, authorization.ActionSubscriptionCancel), s.CancelSubscription)

	org.GET("/brand-kits", s.Authorize(authorization.ObjectBrandKit, authorization.ActionView), s.ListBrandKits)
	org.POST("/brand-kits",
		s.Authorize(authorization.ObjectBrandKit, authorization.ActionCreate),
		s.GateLock(gateBrandKits),
		s.CreateBrandKit)
	org.GET("/brand-kits/:id", s.Authorize(authorization.ObjectBrandKit, authorization.ActionView), s.GetBrandKit)
	org.PATCH("/brand-kits/:id", s.Authorize(authorization.ObjectBrandKit, authorization.ActionUpdate), s.UpdateBrandKit)
	org.DELETE("/brand-kits/:id", s.Authorize(authorization.ObjectBrandKit, authorization.ActionDelete), s.DeleteBrandKit)
	org.POST("/brand-kits/:id/logo",
		s.Authorize(authorization.ObjectBrandKit, authorization.ActionBrandKitUploadLogo),
		s.UploadRateLimit(),
		s.UploadBrandKitLogo)

	org.GET("/videos", s.Authorize(authorization.ObjectVideo, authorization.ActionView), s.ListVideos)
	org.POST("/videos",
		s.Authorize(authorization.ObjectVideo, authorization.ActionCreate),
		s.UploadRateLimit(),
		s.UploadVideo)
	org.GET("/videos/:id", s.Authorize(authorization.ObjectVideo, authorization.ActionView), s.GetVideo)
	org.DELETE("/videos/:id", s.Authorize(authorization.ObjectVideo, authorization.ActionDelete), s.DeleteVideo)

	org.GET("/videos/:id/transforms", s.Authorize(authorization.ObjectTransform, authorization.ActionView), s.ListTransforms)
	org.POST("/videos/:id/transforms",
		s.Authorize(authorization.ObjectTransform, authorization.ActionCreate),
		s.GateLock(gateTransforms),
		s.CreateTransform)
	org.GET("/transforms/:id", s.Authorize(authorization.ObjectTransform, authorization.ActionView), s.GetTransform)
	org.DELETE("/transforms/:id", s.Authorize(authorization.ObjectTransform, authorization.ActionDelete), s.DeleteTransform)

	org.GET("/usage", s.Authorize(authorization.ObjectUsage, authorization.ActionView), s.GetUsage)
	org.GET("/usage/history", s.Authorize(authorization.ObjectUsage, authorization.ActionView), s.GetUsageHistory)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/stripe", s.StripeWebhook)
}
