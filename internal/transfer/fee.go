package transfer

import (
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/types"
	"cx-tradecore/internal/volume"
)

// Withdrawing from a trade account before the trading-volume obligation is
// met costs 20% of the amount.
var penaltyRate = decimal.NewFromFloat(0.20)

// requiredVolumeMultiplier: moving X into a trade account obliges the user
// to generate 2X of trading volume before fee-free withdrawal.
var requiredVolumeMultiplier = decimal.NewFromInt(2)

// WithdrawalFee applies the volume-gated fee policy to a trade->exchange
// amount. fee + net always equals amount.
func WithdrawalFee(amount decimal.Decimal, st volume.Status) (fee, net decimal.Decimal, feeType types.FeeType) {
	if st.VolumeMet {
		return decimal.Zero, amount, types.FeeNone
	}
	fee = amount.Mul(penaltyRate)
	return fee, amount.Sub(fee), types.FeePenalty
}

// RequiredVolumeFor returns the volume obligation created by moving amount
// into a trade account, or implied by the balance remaining after a
// withdrawal.
func RequiredVolumeFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(requiredVolumeMultiplier)
}
