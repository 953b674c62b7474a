package copytrade

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cx-tradecore/internal/types"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFinalPriceSpot(t *testing.T) {
	current := dec("100")
	pct := dec("2.5")

	buy := FinalPriceSpot(current, pct, types.OrderSideBuy)
	assert.True(t, buy.Equal(dec("102.5")), "buy = %s", buy)

	sell := FinalPriceSpot(current, pct, types.OrderSideSell)
	assert.True(t, sell.Equal(dec("97.5")), "sell = %s", sell)

	same := FinalPriceSpot(current, decimal.Zero, types.OrderSideBuy)
	assert.True(t, same.Equal(current))
}

func TestFinalPriceFutures(t *testing.T) {
	current := dec("2000")
	pct := dec("4")

	long := FinalPriceFutures(current, pct, types.PriceWayLong)
	assert.True(t, long.Equal(dec("2080")), "long = %s", long)

	short := FinalPriceFutures(current, pct, types.PriceWayShort)
	assert.True(t, short.Equal(dec("1920")), "short = %s", short)
}

func TestSettlementProfit(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		final    string
		quantity string
		side     types.OrderSide
		priceWay int
		market   types.MarketKind
		want     string
	}{
		{"spot buy gains on rise", "100", "102.5", "2", types.OrderSideBuy, 0, types.MarketSpot, "5"},
		{"spot sell gains on fall", "100", "97.5", "2", types.OrderSideSell, 0, types.MarketSpot, "5"},
		{"spot buy loses on fall", "100", "99", "1", types.OrderSideBuy, 0, types.MarketSpot, "-1"},
		{"futures long gains on rise", "2000", "2080", "0.5", types.OrderSideBuy, types.PriceWayLong, types.MarketFutures, "40"},
		{"futures short gains on fall", "2000", "1920", "0.5", types.OrderSideSell, types.PriceWayShort, types.MarketFutures, "40"},
		{"futures short loses on rise", "2000", "2100", "1", types.OrderSideSell, types.PriceWayShort, types.MarketFutures, "-100"},
		{"flat price", "50", "50", "10", types.OrderSideBuy, 0, types.MarketSpot, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SettlementProfit(dec(tt.entry), dec(tt.final), dec(tt.quantity), tt.side, tt.priceWay, tt.market)
			assert.True(t, got.Equal(dec(tt.want)), "profit = %s", got)
		})
	}
}

// A simulated fill derived from the tier percentage always settles at a
// gain for the follower, whichever direction the order points.
func TestSimulatedFillAlwaysProfits(t *testing.T) {
	current := dec("31337.42")
	qty := dec("0.7")
	for _, pct := range []string{"0.5", "1.5", "4"} {
		for _, side := range []types.OrderSide{types.OrderSideBuy, types.OrderSideSell} {
			final := FinalPriceSpot(current, dec(pct), side)
			profit := SettlementProfit(current, final, qty, side, 0, types.MarketSpot)
			assert.True(t, profit.GreaterThan(decimal.Zero), "spot pct=%s side=%s", pct, side)
		}
		for _, way := range []int{types.PriceWayLong, types.PriceWayShort} {
			final := FinalPriceFutures(current, dec(pct), way)
			profit := SettlementProfit(current, final, qty, types.OrderSideBuy, way, types.MarketFutures)
			assert.True(t, profit.GreaterThan(decimal.Zero), "futures pct=%s way=%d", pct, way)
		}
	}
}
