package types

type AccountType string

type TransferType string

type FeeType string

type TransferStatus string

type MarketKind string

type OrderSide string

type OrderType string

type OrderStatus string

const (
	AccountExchange AccountType = "exchange"
	AccountSpot     AccountType = "spot"
	AccountFutures  AccountType = "futures"
)

const (
	TransferExchangeToTrade TransferType = "exchange_to_trade"
	TransferTradeToExchange TransferType = "trade_to_exchange"
	TransferTradeToTrade    TransferType = "trade_to_trade"
)

const (
	FeeNone       FeeType = "no_fee"
	FeePenalty    FeeType = "penalty_fee"
	FeeWithdrawal FeeType = "withdrawal_fee"
)

const (
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusFailed    TransferStatus = "failed"
)

const (
	MarketSpot    MarketKind = "spot"
	MarketFutures MarketKind = "futures"
)

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusPendingProfit    OrderStatus = "pending_profit"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusPartial          OrderStatus = "partial"
	OrderStatusPartialCancelled OrderStatus = "partial_cancelled"
	OrderStatusFailed           OrderStatus = "failed"
)

// Direction of a futures order: 1 = long, 2 = short.
const (
	PriceWayLong  = 1
	PriceWayShort = 2
)

func (a AccountType) Valid() bool {
	switch a {
	case AccountExchange, AccountSpot, AccountFutures:
		return true
	}
	return false
}

// IsTrade reports whether the account is one of the trading sub-accounts.
func (a AccountType) IsTrade() bool {
	return a == AccountSpot || a == AccountFutures
}

func (m MarketKind) Valid() bool {
	return m == MarketSpot || m == MarketFutures
}

// Account returns the trade account that funds orders of this market.
func (m MarketKind) Account() AccountType {
	if m == MarketFutures {
		return AccountFutures
	}
	return AccountSpot
}
