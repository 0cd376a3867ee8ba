package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBigInt(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint8
		want     string
	}{
		{"nil amount", nil, 18, "0"},
		{"zero", big.NewInt(0), 18, "0"},
		{"whole token", bigFromString(t, "1000000000000000000"), 18, "1"},
		{"fractional", bigFromString(t, "1234500000000000000"), 18, "1.2345"},
		{"sub one", big.NewInt(5000), 6, "0.005"},
		{"zero decimals", big.NewInt(42), 0, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatBigInt(tt.amount, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnits(t *testing.T) {
	t.Run("round trips formatting", func(t *testing.T) {
		got, err := ParseUnits("1.2345", 18)
		require.NoError(t, err)
		assert.Equal(t, "1234500000000000000", got.String())
	})

	t.Run("integer amount", func(t *testing.T) {
		got, err := ParseUnits("7", 6)
		require.NoError(t, err)
		assert.Equal(t, "7000000", got.String())
	})

	t.Run("leading dot", func(t *testing.T) {
		got, err := ParseUnits(".5", 2)
		require.NoError(t, err)
		assert.Equal(t, "50", got.String())
	})

	t.Run("rejects excess precision", func(t *testing.T) {
		_, err := ParseUnits("0.1234567", 6)
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseUnits("1.2.3", 18)
		assert.Error(t, err)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseUnits("  ", 18)
		assert.Error(t, err)
	})
}

func TestCalculateValueUSD(t *testing.T) {
	t.Run("values whole token", func(t *testing.T) {
		value, err := CalculateValueUSD(bigFromString(t, "2000000000000000000"), 18, 0.25)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, value, 1e-12)
	})

	t.Run("nil amount is zero", func(t *testing.T) {
		value, err := CalculateValueUSD(nil, 18, 100)
		require.NoError(t, err)
		assert.Zero(t, value)
	})

	t.Run("zero price is zero", func(t *testing.T) {
		value, err := CalculateValueUSD(big.NewInt(12345), 6, 0)
		require.NoError(t, err)
		assert.Zero(t, value)
	})
}

func TestIsHexAddress(t *testing.T) {
	assert.True(t, IsHexAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3"))
	assert.True(t, IsHexAddress("0x3c281a39944a2319aa653d81cfd93ca10983d234"))
	assert.False(t, IsHexAddress("000000000022D473030F116dDEE9F6B43aC78BA3"))
	assert.False(t, IsHexAddress("0x123"))
	assert.False(t, IsHexAddress(""))
	assert.False(t, IsHexAddress("0xZZ281a39944a2319aa653d81cfd93ca10983d234"))
}

func TestBatch(t *testing.T) {
	t.Run("splits evenly", func(t *testing.T) {
		batches := Batch([]int{1, 2, 3, 4}, 2)
		assert.Equal(t, [][]int{{1, 2}, {3, 4}}, batches)
	})

	t.Run("last batch short", func(t *testing.T) {
		batches := Batch([]int{1, 2, 3, 4, 5}, 2)
		assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, batches)
	})

	t.Run("size larger than input", func(t *testing.T) {
		batches := Batch([]int{1}, 10)
		assert.Equal(t, [][]int{{1}}, batches)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Batch([]int{}, 3))
	})
}

func bigFromString(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}
