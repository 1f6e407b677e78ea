// Package router assembles the gin engine: the global middleware chain and
// the route groups for each access level.
package router

import (
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/reconcile"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	domainidentity "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/handler"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Deps is everything the HTTP layer serves
type Deps struct {
	Config       config.HTTPConfig
	ServiceName  string
	Logger       *zap.Logger
	Meter        metric.Meter // nil disables request metrics
	Tracing      bool
	Limiter      *middleware.RateLimiter
	WebhookKey   string
	Identity     *identity.Service
	Catalog      *catalog.Service
	Ledger       *ledger.Service
	Webhooks     *ledger.WebhookProcessor
	Subscription *subscription.Service
	Reconcile    *reconcile.Service
	Audit        *audit.QueryService
	Jobs         handler.JobStates
	Checks       []handler.Check
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New builds the engine with every route mounted
func New(d Deps, opts ...RouterOption) (*gin.Engine, error) {
	r := &Router{engine: gin.New(), apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.setup(d); err != nil {
		return nil, err
	}
	return r.engine, nil
}

func (r *Router) setup(d Deps) error {
	middleware.SetupValidator()
	e := r.engine
	if len(d.Config.TrustedProxies) > 0 {
		if err := e.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
			return err
		}
	}

	e.Use(logger.Recovery(d.Logger), middleware.RequestID())
	if d.Tracing {
		e.Use(middleware.Tracing(d.ServiceName))
	}
	e.Use(logger.GinMiddleware(d.Logger))
	if d.Meter != nil {
		m, err := middleware.Metrics(d.Meter)
		if err != nil {
			return err
		}
		e.Use(m)
	}
	e.Use(
		middleware.CORS(middleware.DefaultCORSConfig(d.Config.CORSAllowOrigins)),
		middleware.Secure(),
	)
	if d.Config.MaxBodySize > 0 {
		e.Use(middleware.BodyLimit(d.Config.MaxBodySize))
	}

	system := handler.NewSystemHandler(d.Jobs, d.Checks...)
	system.RegisterProbeRoutes(e)

	api := e.Group("/api/" + r.apiVersion)

	authH := handler.NewAuthHandler(d.Identity)
	authH.RegisterPublicRoutes(api)
	handler.NewWebhookHandler(d.Webhooks, d.WebhookKey).RegisterRoutes(api)

	authed := api.Group("", middleware.Auth(d.Identity, d.Logger))
	authH.RegisterRoutes(authed)

	tenants := handler.NewTenantHandler(d.Identity)
	platform := authed.Group("", middleware.RequireRole(domainidentity.RoleSuperAdmin))
	tenants.RegisterPlatformRoutes(platform)
	system.RegisterRoutes(platform)

	scoped := authed.Group("", middleware.Tenant(), middleware.SpanAttributes())
	if d.Limiter != nil {
		scoped.Use(middleware.RateLimit(d.Limiter))
	}
	for _, reg := range []RouteRegistrar{
		tenants,
		handler.NewCatalogHandler(d.Catalog),
		handler.NewInvoiceHandler(d.Ledger),
		handler.NewSubscriptionHandler(d.Subscription),
		handler.NewSyncHandler(d.Reconcile),
	} {
		reg.RegisterRoutes(scoped)
	}

	admin := scoped.Group("", middleware.RequireRole(domainidentity.RoleAdmin, domainidentity.RoleSuperAdmin))
	tenants.RegisterAdminRoutes(admin)
	handler.NewAuditHandler(d.Audit).RegisterRoutes(admin)
	return nil
}
