package assets

import "strings"

// The platform tracks trading-volume obligations for a single designated
// asset. Transfers of any other asset never create a volume threshold and
// cannot be withdrawn through the trade->exchange path.
const (
	VolumeTrackedAssetID   = "1280"
	VolumeTrackedAssetName = "USDT"
)

// QuoteAsset derives the quote asset symbol from a trading pair symbol.
// Both BTC_USDT and BTC-USDT styles are accepted; a bare symbol defaults
// to USDT.
func QuoteAsset(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{"_", "-"} {
		if i := strings.LastIndex(s, sep); i >= 0 && i+1 < len(s) {
			return s[i+1:]
		}
	}
	return VolumeTrackedAssetName
}

// AssetID maps a quote symbol to its platform asset id. Only the designated
// asset has a fixed well-known id; other symbols are keyed by their name.
func AssetID(symbol string) string {
	if strings.EqualFold(strings.TrimSpace(symbol), VolumeTrackedAssetName) {
		return VolumeTrackedAssetID
	}
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func IsVolumeTracked(assetID string) bool {
	return assetID == VolumeTrackedAssetID
}
