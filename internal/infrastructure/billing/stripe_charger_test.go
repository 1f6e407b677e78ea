package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/identity"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

func setupMockBackend(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) {
	stripe.SetBackend(stripe.APIBackend, &mockBackend{handler: handler})
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
}

type tenantFinder map[uuid.UUID]*identity.Tenant

func (f tenantFinder) FindByID(_ context.Context, id uuid.UUID) (*identity.Tenant, error) {
	if t, ok := f[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func testConfig() *StripeConfig {
	return &StripeConfig{SecretKey: "sk_test_123456789", IsTestMode: true, StatementDescriptor: "FMS RENEWAL"}
}

func newTenant(t *testing.T, settings string) *identity.Tenant {
	t.Helper()
	tn, err := identity.NewTenant("acme", "Acme")
	require.NoError(t, err)
	require.NoError(t, tn.UpdateSettings(json.RawMessage(settings)))
	return tn
}

func chargeRequest(tenantID uuid.UUID, amount string) subscription.ChargeRequest {
	return subscription.ChargeRequest{
		TenantID:       tenantID,
		SubscriptionID: uuid.New(),
		PackageID:      uuid.New(),
		Amount:         valueobject.MustMoney(amount, valueobject.USD),
		Seats:          3,
		IdempotencyKey: "renewal:sub:1",
	}
}

func TestNewStripeCharger_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      *StripeConfig
		expectedErr string
	}{
		{"missing secret key", &StripeConfig{IsTestMode: true}, "secret key is required"},
		{"test mode with live key", &StripeConfig{SecretKey: "sk_live_123", IsTestMode: true}, "not a test key"},
		{"live mode with test key", &StripeConfig{SecretKey: "sk_test_123"}, "not a live key"},
		{"long descriptor", &StripeConfig{SecretKey: "sk_test_123", IsTestMode: true, StatementDescriptor: "THIS DESCRIPTOR IS TOO LONG"}, "exceeds 22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charger, err := NewStripeCharger(tt.config, tenantFinder{}, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, charger)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestCharge_Succeeded(t *testing.T) {
	tn := newTenant(t, `{"stripe_customer":"cus_1","stripe_payment_method":"pm_1"}`)
	charger, err := NewStripeCharger(testConfig(), tenantFinder{tn.ID: tn}, zap.NewNop())
	require.NoError(t, err)

	var got *stripe.PaymentIntentParams
	setupMockBackend(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		assert.Equal(t, http.MethodPost, method)
		assert.Equal(t, "/v1/payment_intents", path)
		got = params.(*stripe.PaymentIntentParams)
		return json.Marshal(&stripe.PaymentIntent{ID: "pi_1", Status: stripe.PaymentIntentStatusSucceeded})
	})

	require.NoError(t, charger.Charge(context.Background(), chargeRequest(tn.ID, "19.99")))

	require.NotNil(t, got)
	assert.Equal(t, int64(1999), *got.Amount)
	assert.Equal(t, "usd", *got.Currency)
	assert.Equal(t, "cus_1", *got.Customer)
	assert.Equal(t, "pm_1", *got.PaymentMethod)
	assert.True(t, *got.OffSession)
	assert.Equal(t, "renewal:sub:1", *got.IdempotencyKey)
	assert.Equal(t, "3", got.Metadata["seats"])
	assert.Equal(t, tn.ID.String(), got.Metadata["tenant_id"])
}

func TestCharge_Declined(t *testing.T) {
	tn := newTenant(t, `{"stripe_customer":"cus_1","stripe_payment_method":"pm_1"}`)
	charger, err := NewStripeCharger(testConfig(), tenantFinder{tn.ID: tn}, zap.NewNop())
	require.NoError(t, err)

	t.Run("card error", func(t *testing.T) {
		setupMockBackend(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeCard, Code: stripe.ErrorCodeCardDeclined, Msg: "Your card was declined."}
		})
		err := charger.Charge(context.Background(), chargeRequest(tn.ID, "19.99"))
		assert.ErrorIs(t, err, subscription.ErrChargeDeclined)
	})

	t.Run("authentication required", func(t *testing.T) {
		setupMockBackend(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return json.Marshal(&stripe.PaymentIntent{ID: "pi_2", Status: stripe.PaymentIntentStatusRequiresAction})
		})
		err := charger.Charge(context.Background(), chargeRequest(tn.ID, "19.99"))
		assert.ErrorIs(t, err, subscription.ErrChargeDeclined)
		assert.Contains(t, err.Error(), "pi_2")
	})

	t.Run("api error is not a decline", func(t *testing.T) {
		setupMockBackend(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "internal"}
		})
		err := charger.Charge(context.Background(), chargeRequest(tn.ID, "19.99"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, subscription.ErrChargeDeclined)
	})
}

func TestCharge_MissingPaymentMethod(t *testing.T) {
	tn := newTenant(t, `{"currency":"USD"}`)
	charger, err := NewStripeCharger(testConfig(), tenantFinder{tn.ID: tn}, zap.NewNop())
	require.NoError(t, err)
	setupMockBackend(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
		t.Fatal("gateway must not be called")
		return nil, nil
	})

	err = charger.Charge(context.Background(), chargeRequest(tn.ID, "19.99"))
	assert.ErrorIs(t, err, ErrNoPaymentMethod)

	err = charger.Charge(context.Background(), chargeRequest(uuid.New(), "19.99"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMinorUnits(t *testing.T) {
	n, err := minorUnits(chargeRequest(uuid.New(), "49.005"))
	require.NoError(t, err)
	assert.Equal(t, int64(4901), n)

	_, err = minorUnits(chargeRequest(uuid.New(), "0"))
	assert.Error(t, err)
}
