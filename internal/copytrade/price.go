package copytrade

import (
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/types"
)

var hundred = decimal.NewFromInt(100)

// FinalPriceSpot simulates the price a spot follower order settles at:
// current price moved by the owner's profit percentage, up for a buy and
// down for a sell.
func FinalPriceSpot(current, percentage decimal.Decimal, side types.OrderSide) decimal.Decimal {
	delta := current.Mul(percentage).Div(hundred)
	if side == types.OrderSideBuy {
		return current.Add(delta)
	}
	return current.Sub(delta)
}

// FinalPriceFutures simulates the settlement price of a futures follower
// order. The percentage comes from the follower's own VIP tier; direction
// follows the owner order's price way.
func FinalPriceFutures(current, percentage decimal.Decimal, priceWay int) decimal.Decimal {
	delta := current.Mul(percentage).Div(hundred)
	if priceWay == types.PriceWayLong {
		return current.Add(delta)
	}
	return current.Sub(delta)
}

// SettlementProfit is the amount credited when a pending-profit order is
// resolved: the gap between the synthetic fill and the entry price, signed
// so that the configured percentage always realizes as a gain.
func SettlementProfit(entry, final, quantity decimal.Decimal, side types.OrderSide, priceWay int, market types.MarketKind) decimal.Decimal {
	diff := final.Sub(entry)
	if market == types.MarketFutures {
		if priceWay != types.PriceWayLong {
			diff = diff.Neg()
		}
	} else if side != types.OrderSideBuy {
		diff = diff.Neg()
	}
	return diff.Mul(quantity)
}
