package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, s := range []string{"0", "1", "1000000000", "340282366920938463463374607431768211456"} {
			v, err := ParseAmount(s)
			require.NoError(t, err, s)
			assert.Equal(t, s, v.String())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "abc", "-1", "1.5", "1e9", "0x10", " 1"} {
			_, err := ParseAmount(s)
			assert.Error(t, err, "%q should not parse", s)
		}
	})
}

func TestSumAmounts(t *testing.T) {
	total, err := SumAmounts([]string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, "6", total.String())

	total, err = SumAmounts(nil)
	require.NoError(t, err)
	assert.Equal(t, "0", total.String())

	_, err = SumAmounts([]string{"1", "bad"})
	assert.Error(t, err)
}

func TestAmountGTE(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"1000000000", "1000000000", true},
		{"1000000001", "1000000000", true},
		{"999999999", "1000000000", false},
		{"0", "0", true},
	}
	for _, tc := range cases {
		got, err := AmountGTE(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s >= %s", tc.a, tc.b)
	}

	_, err := AmountGTE("x", "1")
	assert.Error(t, err)
	_, err = AmountGTE("1", "-2")
	assert.Error(t, err)
}
