package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytrack/backend/internal/domain/shared"
	"github.com/paytrack/backend/internal/domain/shared/valueobject"
)

func TestCheckPaymentFits(t *testing.T) {
	tenantID := uuid.New()
	payDate := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	inv := newTestInvoice(t, tenantID, 10000, statusNow.AddDate(0, 0, 10))

	t.Run("fits with no prior payments", func(t *testing.T) {
		err := CheckPaymentFits(inv, nil, valueobject.NewMoney(10000), uuid.Nil)
		assert.NoError(t, err)
	})

	t.Run("rejected when exceeding remaining headroom", func(t *testing.T) {
		// 5000 already settled, 7000 requested against 10000 face value.
		existing := []*Payment{newTestPayment(t, inv, 5000, payDate)}

		err := CheckPaymentFits(inv, existing, valueobject.NewMoney(7000), uuid.Nil)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, ErrCodeExceedsRemaining, domainErr.Code)
		assert.Equal(t, "amount exceeds remaining balance: 5000", domainErr.Message)
	})

	t.Run("exact remaining amount is accepted", func(t *testing.T) {
		existing := []*Payment{newTestPayment(t, inv, 5000, payDate)}
		err := CheckPaymentFits(inv, existing, valueobject.NewMoney(5000), uuid.Nil)
		assert.NoError(t, err)
	})

	t.Run("one cent over is rejected", func(t *testing.T) {
		existing := []*Payment{newTestPayment(t, inv, 5000, payDate)}
		err := CheckPaymentFits(inv, existing, valueobject.NewMoney(5001), uuid.Nil)
		assert.Error(t, err)
	})

	t.Run("edited payment is excluded from the other-paid total", func(t *testing.T) {
		edited := newTestPayment(t, inv, 5000, payDate)
		other := newTestPayment(t, inv, 3000, payDate)
		payments := []*Payment{edited, other}

		// Raising the edited payment from 5000 to 7000 fits: others total 3000.
		err := CheckPaymentFits(inv, payments, valueobject.NewMoney(7000), edited.ID)
		assert.NoError(t, err)

		// 8000 would overshoot by one thousand.
		err = CheckPaymentFits(inv, payments, valueobject.NewMoney(8000), edited.ID)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "amount exceeds remaining balance: 7000", domainErr.Message)
	})

	t.Run("no exclusion when creating", func(t *testing.T) {
		existing := []*Payment{newTestPayment(t, inv, 9000, payDate)}
		err := CheckPaymentFits(inv, existing, valueobject.NewMoney(2000), uuid.Nil)
		assert.Error(t, err)
	})
}
