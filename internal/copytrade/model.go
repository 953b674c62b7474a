package copytrade

import (
	"time"

	"github.com/shopspring/decimal"

	"cx-tradecore/internal/types"
)

// Order is either an owner order (the original, open for copying) or a
// follower order (the mirror fabricated when a user follows a copy code).
type Order struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Market     types.MarketKind  `json:"market"`
	Symbol     string            `json:"symbol"`
	Side       types.OrderSide   `json:"side"`
	Type       types.OrderType   `json:"type"`
	Quantity   decimal.Decimal   `json:"quantity"`
	LimitPrice decimal.Decimal   `json:"limit_price"`
	EntryPrice decimal.Decimal   `json:"entry_price"`
	Percentage decimal.Decimal   `json:"percentage"`
	PriceWay   int               `json:"price_way"`
	CopyCode   string            `json:"copy_code"`
	Expiration *time.Time        `json:"expiration,omitempty"`
	Status     types.OrderStatus `json:"status"`
	Owner      bool              `json:"owner"`
	Trades     []Trade           `json:"trades,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Trade is one execution fill. A follower order carries exactly one
// synthetic fill, dated at follow time at the simulated final price.
type Trade struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"order_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	ExecutedAt time.Time       `json:"executed_at"`
}

func (o Order) Expired(now time.Time) bool {
	return o.Expiration != nil && now.After(*o.Expiration)
}
