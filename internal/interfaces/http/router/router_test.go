package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/audit"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/catalog"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/ledger"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/reconcile"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	domainidentity "github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/auth"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/cache"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/lock"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/persistence"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/tax"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/handler"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/middleware"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const password = "correct horse battery"

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t        *testing.T
	engine   *gin.Engine
	identity *identity.Service
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositories(db)
	locker := lock.NewMemoryLocker()
	auditRepo := persistence.NewGormAuditRepository(db)
	recorder := audit.NewRecorder(auditRepo, false, nil, zap.NewNop())
	calc, err := tax.NewFlatRateCalculator(nil)
	require.NoError(t, err)
	jwt := auth.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "fms", AccessTokenExpiration: time.Hour})
	store := cache.NewMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	ids := identity.NewService(scope, repos, jwt, recorder, zap.NewNop())
	ledgerSvc := ledger.NewService(scope, repos, locker, calc, recorder, nil, ledger.Config{})

	engine, err := New(Deps{
		Config:       config.HTTPConfig{MaxBodySize: 1 << 20, CORSAllowOrigins: []string{"https://app.example.com"}},
		ServiceName:  "fms-test",
		Logger:       zap.NewNop(),
		Limiter:      middleware.NewRateLimiter(1000, 1000),
		WebhookKey:   "whsec",
		Identity:     ids,
		Catalog:      catalog.NewService(scope, repos),
		Ledger:       ledgerSvc,
		Webhooks:     ledger.NewWebhookProcessor(ledgerSvc, store, time.Hour, nil),
		Subscription: subscription.NewService(scope, repos, locker, nil, recorder, nil, 1),
		Reconcile:    reconcile.NewService(scope, repos, locker, nil, 1),
		Audit:        audit.NewQueryService(auditRepo),
		Checks: []handler.Check{{Name: "database", Probe: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		}}},
	})
	require.NoError(t, err)
	return &server{t: t, engine: engine, identity: ids}
}

func (s *server) call(method, path, token string, body any, headers ...string) (int, dto.Response) {
	s.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(s.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var resp dto.Response
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func (s *server) login(email string, tenantID *uuid.UUID) string {
	s.t.Helper()
	code, resp := s.call(http.MethodPost, "/api/v1/auth/login", "", identity.LoginRequest{Email: email, Password: password, TenantID: tenantID})
	require.Equal(s.t, http.StatusOK, code, resp.Error)
	data := resp.Data.(map[string]any)
	return data["access_token"].(string)
}

func TestProbes(t *testing.T) {
	s := newServer(t)
	code, _ := s.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp := s.call(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestSessionLifecycle(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	tn, err := s.identity.CreateTenant(ctx, identity.CreateTenantRequest{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	other, err := s.identity.CreateTenant(ctx, identity.CreateTenantRequest{Slug: "globex", Name: "Globex"})
	require.NoError(t, err)
	_, err = s.identity.CreateUser(ctx, &tn.ID, identity.CreateUserRequest{Email: "admin@acme.test", Role: domainidentity.RoleAdmin, Password: password})
	require.NoError(t, err)
	_, err = s.identity.CreateUser(ctx, nil, identity.CreateUserRequest{Email: "root@platform.test", Role: domainidentity.RoleSuperAdmin, Password: password})
	require.NoError(t, err)

	code, resp := s.call(http.MethodPost, "/api/v1/auth/login", "", identity.LoginRequest{Email: "admin@acme.test", Password: "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)

	token := s.login("admin@acme.test", nil)

	code, resp = s.call(http.MethodGet, "/api/v1/tenant", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "acme", resp.Data.(map[string]any)["slug"])

	code, resp = s.call(http.MethodGet, "/api/v1/tenant", token, nil, middleware.TenantIDHeader, other.ID.String())
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, shared.CodeCrossTenantViolation, resp.Error.Code)

	code, _ = s.call(http.MethodGet, "/api/v1/system/jobs", token, nil)
	assert.Equal(t, http.StatusForbidden, code, "tenant admins cannot reach platform routes")

	code, _ = s.call(http.MethodGet, "/api/v1/audit-logs", token, nil)
	assert.Equal(t, http.StatusOK, code)

	root := s.login("root@platform.test", &other.ID)
	code, resp = s.call(http.MethodGet, "/api/v1/tenant", root, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "globex", resp.Data.(map[string]any)["slug"])
	code, _ = s.call(http.MethodGet, "/api/v1/system/jobs", root, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.call(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, resp = s.call(http.MethodGet, "/api/v1/tenant", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, shared.CodeUnauthorized, resp.Error.Code)
}

func TestUnknownRouteAndHeaders(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
