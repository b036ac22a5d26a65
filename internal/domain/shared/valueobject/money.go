package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an immutable monetary amount stored as integer cents.
// All arithmetic stays in int64; fractional values never enter the domain.
type Money struct {
	cents int64
}

// Zero is the zero monetary amount.
var Zero = Money{}

// NewMoney creates a Money from an integer number of cents.
func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

// FromCents is an alias of NewMoney kept for call-site readability.
func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// Cents returns the raw amount in cents.
func (m Money) Cents() int64 {
	return m.cents
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{cents: m.cents - other.cents}
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{cents: -m.cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.cents > 0
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// Equals reports whether both amounts are identical.
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.cents >= other.cents
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.cents < other.cents
}

// LessThanOrEqual reports whether m <= other.
func (m Money) LessThanOrEqual(other Money) bool {
	return m.cents <= other.cents
}

// PercentageOf returns m as a percentage of total, rounded to two decimal
// places. Returns zero when total is not positive.
func (m Money) PercentageOf(total Money) decimal.Decimal {
	if total.cents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(m.cents).
		Div(decimal.NewFromInt(total.cents)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// Decimal returns the amount in major units as a decimal (cents / 100).
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.cents).Div(decimal.NewFromInt(100))
}

// String renders the amount in major units, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a bare integer of cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.cents)
}

// UnmarshalJSON decodes an integer number of cents.
func (m *Money) UnmarshalJSON(data []byte) error {
	var cents int64
	if err := json.Unmarshal(data, &cents); err != nil {
		return fmt.Errorf("money must be an integer number of cents: %w", err)
	}
	m.cents = cents
	return nil
}

// Value implements driver.Valuer for database storage.
func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

// Scan implements sql.Scanner for database retrieval.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.cents = 0
		return nil
	}
	switch v := value.(type) {
	case int64:
		m.cents = v
	case int:
		m.cents = int64(v)
	case []byte:
		var parsed int64
		if _, err := fmt.Sscanf(string(v), "%d", &parsed); err != nil {
			return fmt.Errorf("cannot scan %q into Money: %w", string(v), err)
		}
		m.cents = parsed
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
	return nil
}
