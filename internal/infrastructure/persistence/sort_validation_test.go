package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "ASC"},
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"  desc  ", "DESC"},
		{"   ", "ASC"},
		{"ascending", "ASC"},
		{"DESC; DROP TABLE suppliers;--", "ASC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	allowed := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}

	t.Run("whitelisted fields pass through", func(t *testing.T) {
		assert.Equal(t, "name", ValidateSortField("name", allowed, "created_at"))
		assert.Equal(t, "id", ValidateSortField("id", allowed, "created_at"))
		assert.Equal(t, "name", ValidateSortField("  name  ", allowed, "created_at"))
	})

	t.Run("everything else lands on the default", func(t *testing.T) {
		for _, input := range []string{
			"",
			"   ",
			"balance_cents", // real column, not whitelisted here
			"NAME",          // whitelist is case sensitive
			"name suppliers",
			"name'--",
		} {
			assert.Equal(t, "created_at", ValidateSortField(input, allowed, "created_at"), "input %q", input)
		}
	})

	t.Run("empty default stays empty for invalid input", func(t *testing.T) {
		assert.Equal(t, "name", ValidateSortField("name", allowed, ""))
		assert.Equal(t, "", ValidateSortField("nope", allowed, ""))
	})
}

// The whitelists are the only thing standing between a client-supplied sort
// parameter and the ORDER BY clause, so every aggregate's list must at least
// cover the base columns.
func TestSortFieldWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"supplier": SupplierSortFields,
		"invoice":  InvoiceSortFields,
		"payment":  PaymentSortFields,
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, whitelist["id"])
			assert.True(t, whitelist["created_at"])
			assert.Greater(t, len(whitelist), 3)
		})
	}
}

func TestSortValidationRejectsInjection(t *testing.T) {
	payloads := []string{
		"id; DROP TABLE suppliers;--",
		"id' OR '1'='1",
		"id UNION SELECT * FROM payments",
		"id, (SELECT tax_document FROM suppliers)",
		"CASE WHEN 1=1 THEN id ELSE name END",
		"id/**/;DROP TABLE suppliers",
		"id\n; DROP TABLE suppliers",
		"1; EXEC xp_cmdshell('dir')",
	}

	for _, payload := range payloads {
		assert.Equal(t, "created_at", ValidateSortField(payload, SupplierSortFields, "created_at"), "field payload %q", payload)
		assert.Equal(t, "ASC", ValidateSortOrder(payload), "order payload %q", payload)
	}
}
