package transfer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cx-tradecore/internal/types"
	"cx-tradecore/internal/volume"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWithdrawalFee(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		total    string
		required string
		wantFee  string
		wantNet  string
		wantType types.FeeType
	}{
		{"volume met", "100", "250", "200", "0", "100", types.FeeNone},
		{"volume exactly met", "100", "200", "200", "0", "100", types.FeeNone},
		{"volume unmet", "100", "50", "200", "20", "80", types.FeePenalty},
		{"zero volume", "40", "0", "80", "8", "32", types.FeePenalty},
		{"no obligation", "100", "0", "0", "0", "100", types.FeeNone},
		{"fractional amount", "0.5", "10", "100", "0.1", "0.4", types.FeePenalty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := volume.BuildStatus("1280", dec(tt.total), dec(tt.required))
			fee, net, feeType := WithdrawalFee(dec(tt.amount), st)
			assert.True(t, fee.Equal(dec(tt.wantFee)), "fee = %s", fee)
			assert.True(t, net.Equal(dec(tt.wantNet)), "net = %s", net)
			assert.Equal(t, tt.wantType, feeType)
		})
	}
}

func TestWithdrawalFeeConservation(t *testing.T) {
	for _, amount := range []string{"1", "3.33", "99.999", "1000000", "0.0000000001"} {
		for _, met := range []bool{true, false} {
			st := volume.Status{VolumeMet: met}
			fee, net, _ := WithdrawalFee(dec(amount), st)
			require.True(t, fee.Add(net).Equal(dec(amount)), "amount %s met=%v", amount, met)
			require.False(t, fee.IsNegative())
			require.False(t, net.IsNegative())
		}
	}
}

func TestRequiredVolumeFor(t *testing.T) {
	assert.True(t, RequiredVolumeFor(dec("100")).Equal(dec("200")))
	assert.True(t, RequiredVolumeFor(dec("0.25")).Equal(dec("0.5")))
	assert.True(t, RequiredVolumeFor(decimal.Zero).Equal(decimal.Zero))
}
