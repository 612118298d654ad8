package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MustDecimal parses s or fails the test.
func MustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err, "decimal %q", s)
	return d
}

// AssertDecimalEqual compares by value, so "1.50" equals "1.5".
func AssertDecimalEqual(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	want := MustDecimal(t, expected)
	if actual.Equal(want) {
		return true
	}
	return assert.Fail(t, "decimals differ: expected "+want.String()+", actual "+actual.String(), msgAndArgs...)
}

// AssertDecimalMap compares a map of decimals against string values key by key.
func AssertDecimalMap(t *testing.T, expected map[string]string, actual map[string]decimal.Decimal) {
	t.Helper()
	if !assert.Len(t, actual, len(expected)) {
		return
	}
	for k, v := range expected {
		got, ok := actual[k]
		if assert.True(t, ok, "missing key %q", k) {
			AssertDecimalEqual(t, v, got, "key %q", k)
		}
	}
}
