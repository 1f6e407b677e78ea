package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLog(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now()

	t.Run("with meta", func(t *testing.T) {
		l, err := NewLog(&tenantID, nil, "user:42", "PaymentRecorded", map[string]string{"amount": "60.00 USD"}, "10.0.0.1", now)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"60.00 USD"}`, string(l.Meta))
		assert.Nil(t, l.UserID)
		assert.Equal(t, now, l.CreatedAt)
	})

	t.Run("defaults", func(t *testing.T) {
		l, err := NewLog(nil, nil, "", "SweepRan", nil, "", now)
		require.NoError(t, err)
		assert.Equal(t, SystemActor, l.Actor)
		assert.JSONEq(t, `{}`, string(l.Meta))
		assert.Nil(t, l.TenantID)
	})

	t.Run("action is required", func(t *testing.T) {
		_, err := NewLog(nil, nil, "", " ", nil, "", now)
		assert.Error(t, err)
	})

	t.Run("unserializable meta", func(t *testing.T) {
		_, err := NewLog(nil, nil, "", "X", make(chan int), "", now)
		assert.Error(t, err)
	})

	t.Run("entity", func(t *testing.T) {
		id := uuid.New()
		l, err := NewLog(nil, nil, "", "InvoiceSent", nil, "", now)
		require.NoError(t, err)
		l.ForEntity("Invoice", id)
		assert.Equal(t, "Invoice", l.EntityType)
		assert.Equal(t, id, *l.EntityID)
	})
}
