package registry

import (
	"os"
	"path/filepath"
	"testing"

	"dust_cleaner/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() []entity.TokenDescriptor {
	return []entity.TokenDescriptor{
		{Address: "0x3c281a39944a2319aa653d81cfd93ca10983d234", Symbol: "BUILD", Name: "Build", Decimals: 18, PriceFeedID: "build-2"},
		{Address: "0x7a2c5e7788e55ec0a7ba4aeec5b3da322718fb5e", Symbol: "APU", Name: "Apu", Decimals: 18, PriceFeedID: "apu-2"},
	}
}

func TestNew(t *testing.T) {
	t.Run("accepts valid tokens in order", func(t *testing.T) {
		r, err := New(testTokens())
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, "BUILD", r.Tokens()[0].Symbol)
		assert.Equal(t, "APU", r.Tokens()[1].Symbol)
	})

	t.Run("rejects invalid address", func(t *testing.T) {
		tokens := testTokens()
		tokens[0].Address = "not-an-address"
		_, err := New(tokens)
		assert.Error(t, err)
	})

	t.Run("rejects missing symbol", func(t *testing.T) {
		tokens := testTokens()
		tokens[1].Symbol = ""
		_, err := New(tokens)
		assert.Error(t, err)
	})

	t.Run("rejects missing price feed id", func(t *testing.T) {
		tokens := testTokens()
		tokens[0].PriceFeedID = ""
		_, err := New(tokens)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate address with different casing", func(t *testing.T) {
		tokens := testTokens()
		tokens[1].Address = "0x3C281A39944A2319AA653D81CFD93CA10983D234"
		_, err := New(tokens)
		assert.Error(t, err)
	})

	t.Run("rejects the zero address", func(t *testing.T) {
		tokens := testTokens()
		tokens[0].Address = entity.ZeroAddress
		_, err := New(tokens)
		assert.Error(t, err)
	})

	t.Run("rejects empty registry", func(t *testing.T) {
		_, err := New(nil)
		assert.Error(t, err)
	})
}

func TestByAddress(t *testing.T) {
	r, err := New(testTokens())
	require.NoError(t, err)

	token, ok := r.ByAddress("0x3C281A39944A2319AA653D81CFD93CA10983D234")
	require.True(t, ok)
	assert.Equal(t, "BUILD", token.Symbol)

	_, ok = r.ByAddress("0x0000000000000000000000000000000000000001")
	assert.False(t, ok)
}

func TestPriceFeedIDs(t *testing.T) {
	tokens := testTokens()
	tokens = append(tokens, entity.TokenDescriptor{
		Address:     "0x07d15798a67253d76cea61f0ea6f57aedc59dffb",
		Symbol:      "BASED",
		PriceFeedID: "build-2", // shares a feed with BUILD
	})
	r, err := New(tokens)
	require.NoError(t, err)

	assert.Equal(t, []string{"build-2", "apu-2"}, r.PriceFeedIDs())
}

func TestLoad(t *testing.T) {
	t.Run("loads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.yaml")
		content := `tokens:
  - name: "Build"
    address: "0x3c281a39944a2319aa653d81cfd93ca10983d234"
    symbol: "BUILD"
    priceFeedId: "build-2"
    decimals: 18
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		r, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Len())
		assert.Equal(t, uint8(18), r.Tokens()[0].Decimals)
		assert.Equal(t, "build-2", r.Tokens()[0].PriceFeedID)
	})

	t.Run("fails on missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
