package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"comma grouped", "$1,234", 1234, true},
		{"plain", "$88", 88, true},
		{"decimal", "€ 89.50 nightly", 89.5, true},
		{"embedded in fragment", "from $210 per night", 210, true},
		{"large grouped", "£12,345,678", 12345678, true},
		{"no price", "no price", 0, false},
		{"empty", "", 0, false},
		{"marker without digits", "$ TBD", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCurrency(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseCurrencyPtr(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ParseCurrencyPtr("call for rates"))
	if v := ParseCurrencyPtr("$1,234"); assert.NotNil(t, v) {
		assert.Equal(t, 1234.0, *v)
	}
}

func TestCleanLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "New York, US", CleanLocation("New York, US - 5385.12 mi away"))
	assert.Equal(t, "Austin, TX", CleanLocation("Austin, TX - 3 mi away"))
	assert.Equal(t, "Lisbon, PT", CleanLocation("  Lisbon, PT  "))

	// Idempotent on already-clean input.
	clean := CleanLocation("New York, US - 5385.12 mi away")
	assert.Equal(t, clean, CleanLocation(clean))
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hotel grand palace", NormalizeName("  Hotel   Grand\tPalace "))
	assert.Equal(t, NormalizeName("Hotel Grand"), NormalizeName("HOTEL  GRAND"))
}
