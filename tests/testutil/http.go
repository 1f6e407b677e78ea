package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HandlerCase is one call of a single gin handler, without the router.
// Tenant is stored as the resolved tenant when set. WantCode is the
// envelope error code; empty means the call must succeed.
type HandlerCase struct {
	Name       string
	Method     string
	Path       string
	Tenant     uuid.UUID
	Params     gin.Params
	Body       any
	WantStatus int
	WantCode   string
	Check      func(t *testing.T, tc *TestContext)
}

// RunHandlerCases runs every case as a subtest against handler.
func RunHandlerCases(t *testing.T, handler gin.HandlerFunc, cases []HandlerCase) {
	t.Helper()
	for _, hc := range cases {
		t.Run(hc.Name, func(t *testing.T) {
			runHandlerCase(t, handler, hc)
		})
	}
}

func runHandlerCase(t *testing.T, handler gin.HandlerFunc, hc HandlerCase) {
	t.Helper()

	method, path := hc.Method, hc.Path
	if method == "" {
		method = http.MethodGet
	}
	if path == "" {
		path = "/"
	}
	var body io.Reader
	if hc.Body != nil {
		raw, err := json.Marshal(hc.Body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, body)
	if hc.Body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Params = hc.Params
	tc := &TestContext{Context: c, Recorder: w, Engine: engine}
	if hc.Tenant != uuid.Nil {
		tc.SetTenant(hc.Tenant)
	}

	handler(c)

	if hc.WantStatus != 0 {
		assert.Equal(t, hc.WantStatus, w.Code)
	}
	env := tc.Envelope(t)
	if hc.WantCode == "" {
		assert.True(t, env.Success, "unexpected error %+v", env.Error)
	} else {
		AssertErrorCode(t, tc, hc.WantCode)
	}
	if hc.Check != nil {
		hc.Check(t, tc)
	}
}

// Envelope decodes the recorded body as the API response envelope.
func (tc *TestContext) Envelope(t *testing.T) dto.Response {
	t.Helper()
	var env dto.Response
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &env), "body: %s", tc.ResponseBody())
	return env
}

// AssertErrorCode asserts the recorded response is a failure carrying code.
func AssertErrorCode(t *testing.T, tc *TestContext, code string) {
	t.Helper()
	env := tc.Envelope(t)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "expected an error object")
	assert.Equal(t, code, env.Error.Code)
}

// tenantIDKey is middleware.TenantIDKey; middleware depends on packages
// whose tests use this one.
const tenantIDKey = "tenant_id"

// SetTenant stores id the way the tenant middleware does.
func (tc *TestContext) SetTenant(id uuid.UUID) {
	tc.Context.Set(tenantIDKey, id)
}
