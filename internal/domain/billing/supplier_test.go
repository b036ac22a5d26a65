package billing

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active supplier", func(t *testing.T) {
		s, err := NewSupplier(tenantID, "Acme Ltda", "12.345.678/0001-00", "ap@acme.example", "+55 11 5555-0100")
		require.NoError(t, err)
		assert.True(t, s.IsActive())
		assert.Equal(t, tenantID, s.TenantID)
		assert.Equal(t, "Acme Ltda", s.Name)
	})

	t.Run("tax document is stored verbatim", func(t *testing.T) {
		// Format is intentionally not validated; it belongs to the issuing
		// jurisdiction, not this system.
		s, err := NewSupplier(tenantID, "Acme", "not-even-close-to-a-tax-id", "", "")
		require.NoError(t, err)
		assert.Equal(t, "not-even-close-to-a-tax-id", s.TaxDocument)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewSupplier(tenantID, "   ", "", "", "")
		assert.Error(t, err)
	})

	t.Run("rejects oversized name", func(t *testing.T) {
		_, err := NewSupplier(tenantID, strings.Repeat("x", 201), "", "", "")
		assert.Error(t, err)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		_, err := NewSupplier(tenantID, "Acme", "", "no-at-sign", "")
		assert.Error(t, err)
	})
}

func TestSupplierLifecycle(t *testing.T) {
	s, err := NewSupplier(uuid.New(), "Acme", "", "", "")
	require.NoError(t, err)

	t.Run("deactivate then activate", func(t *testing.T) {
		require.NoError(t, s.Deactivate())
		assert.False(t, s.IsActive())
		assert.Error(t, s.Deactivate())

		require.NoError(t, s.Activate())
		assert.True(t, s.IsActive())
		assert.Error(t, s.Activate())
	})

	t.Run("update bumps version", func(t *testing.T) {
		v := s.GetVersion()
		require.NoError(t, s.Update("Acme Renamed", "123", "new@acme.example", "555"))
		assert.Equal(t, "Acme Renamed", s.Name)
		assert.Greater(t, s.GetVersion(), v)
	})
}
