package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"BTC_USDT", "USDT"},
		{"BTC-USDT", "USDT"},
		{"eth_usdt", "USDT"},
		{"SOL_BTC", "BTC"},
		{"BTCUSDT", "USDT"},
		{"", "USDT"},
		{"  ltc-eth  ", "ETH"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, QuoteAsset(tt.symbol), "symbol %q", tt.symbol)
	}
}

func TestAssetID(t *testing.T) {
	assert.Equal(t, "1280", AssetID("USDT"))
	assert.Equal(t, "1280", AssetID("usdt"))
	assert.Equal(t, "BTC", AssetID("btc"))
	assert.True(t, IsVolumeTracked("1280"))
	assert.False(t, IsVolumeTracked("BTC"))
}
