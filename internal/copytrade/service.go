package copytrade

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/assets"
	"cx-tradecore/internal/balance"
	"cx-tradecore/internal/events"
	"cx-tradecore/internal/pricing"
	"cx-tradecore/internal/types"
	"cx-tradecore/internal/vip"
)

var (
	ErrOrderNotFound       = errors.New("copy order not found")
	ErrOrderExpired        = errors.New("copy order has expired")
	ErrAlreadyFollowing    = errors.New("already following this copy code")
	ErrInsufficientBalance = errors.New("insufficient balance to follow")
	ErrIneligibleTier      = errors.New("vip tier does not allow futures copying")
)

type Service struct {
	pool     *pgxpool.Pool
	balances *balance.Service
	tiers    *vip.Service
	prices   pricing.Source
	bus      *events.Bus
}

func NewService(pool *pgxpool.Pool, balances *balance.Service, tiers *vip.Service, prices pricing.Source, bus *events.Bus) *Service {
	return &Service{pool: pool, balances: balances, tiers: tiers, prices: prices, bus: bus}
}

// Follow fabricates a follower order mirroring the owner order registered
// under copyCode. No funds move at follow time; the simulated gain is
// deferred until the settlement sweep passes the order's expiration.
func (s *Service) Follow(ctx context.Context, userID, copyCode string, market types.MarketKind) (Order, error) {
	if userID == "" || copyCode == "" {
		return Order{}, errors.New("user and copy_code are required")
	}
	if !market.Valid() {
		return Order{}, errors.New("invalid market")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	owner, err := s.ownerByCode(ctx, tx, copyCode, market)
	if err != nil {
		return Order{}, err
	}
	now := time.Now().UTC()
	if owner.Expired(now) {
		return Order{}, ErrOrderExpired
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM copy_orders WHERE copy_code = $1 AND user_id = $2)
	`, copyCode, userID).Scan(&exists); err != nil {
		return Order{}, err
	}
	if exists {
		return Order{}, ErrAlreadyFollowing
	}

	quote := assets.QuoteAsset(owner.Symbol)
	quoteID := assets.AssetID(quote)
	bal, err := s.balances.Get(ctx, userID, market.Account(), quoteID)
	if err != nil && !errors.Is(err, balance.ErrNotFound) {
		return Order{}, err
	}
	if errors.Is(err, balance.ErrNotFound) || bal.Balance.LessThan(owner.LimitPrice) {
		return Order{}, ErrInsufficientBalance
	}

	// Tier eligibility is the last gate: problems with the order itself
	// (missing, expired, already followed, underfunded) surface first.
	// Futures percentage comes from the follower's own tier; spot inherits
	// the owner's rate and never consults the tier.
	var tier vip.Tier
	if market == types.MarketFutures {
		tier, err = s.tiers.ResolveForUser(ctx, userID)
		if err != nil {
			return Order{}, err
		}
		if tier.Level == 0 {
			return Order{}, ErrIneligibleTier
		}
	}

	current, err := s.prices.Price(ctx, owner.Symbol)
	if err != nil {
		return Order{}, err
	}

	var percentage, finalPrice decimal.Decimal
	if market == types.MarketFutures {
		percentage = tier.ProfitPercentage
		finalPrice = FinalPriceFutures(current, percentage, owner.PriceWay)
	} else {
		percentage = owner.Percentage
		finalPrice = FinalPriceSpot(current, percentage, owner.Side)
	}

	follower := Order{
		UserID:     userID,
		Market:     market,
		Symbol:     owner.Symbol,
		Side:       owner.Side,
		Type:       owner.Type,
		Quantity:   owner.Quantity,
		LimitPrice: owner.LimitPrice,
		EntryPrice: current,
		Percentage: percentage,
		PriceWay:   owner.PriceWay,
		CopyCode:   copyCode,
		Expiration: owner.Expiration,
		Status:     types.OrderStatusPendingProfit,
		Owner:      false,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO copy_orders (
			user_id, market, symbol, side, order_type, quantity,
			limit_price, entry_price, percentage, price_way,
			copy_code, expiration, status, is_owner, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, follower.UserID, string(follower.Market), follower.Symbol, string(follower.Side), string(follower.Type),
		follower.Quantity, follower.LimitPrice, follower.EntryPrice, follower.Percentage, follower.PriceWay,
		follower.CopyCode, follower.Expiration, string(follower.Status)).Scan(&follower.ID, &follower.CreatedAt, &follower.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Order{}, ErrAlreadyFollowing
		}
		return Order{}, err
	}

	fill := Trade{OrderID: follower.ID, Price: finalPrice, Quantity: follower.Quantity, ExecutedAt: now}
	err = tx.QueryRow(ctx, `
		INSERT INTO copy_order_trades (order_id, price, quantity, executed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, fill.OrderID, fill.Price, fill.Quantity, fill.ExecutedAt).Scan(&fill.ID)
	if err != nil {
		return Order{}, err
	}
	follower.Trades = []Trade{fill}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.TypeOrderFollowed, UserID: userID, Data: follower})
	}
	return follower, nil
}

func (s *Service) ownerByCode(ctx context.Context, tx pgx.Tx, copyCode string, market types.MarketKind) (Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT id, user_id, market, symbol, side, order_type, quantity,
		       limit_price, entry_price, percentage, price_way,
		       copy_code, expiration, status, is_owner, created_at, updated_at
		FROM copy_orders
		WHERE copy_code = $1 AND market = $2 AND is_owner = TRUE AND status = $3
	`, copyCode, string(market), string(types.OrderStatusPending)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var market, side, orderType, status string
	err := row.Scan(&o.ID, &o.UserID, &market, &o.Symbol, &side, &orderType, &o.Quantity,
		&o.LimitPrice, &o.EntryPrice, &o.Percentage, &o.PriceWay,
		&o.CopyCode, &o.Expiration, &status, &o.Owner, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Market = types.MarketKind(market)
	o.Side = types.OrderSide(side)
	o.Type = types.OrderType(orderType)
	o.Status = types.OrderStatus(status)
	return o, nil
}

// AvailableOrders lists owner orders still open for copying.
func (s *Service) AvailableOrders(ctx context.Context, market types.MarketKind) ([]Order, error) {
	if !market.Valid() {
		return nil, errors.New("invalid market")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, market, symbol, side, order_type, quantity,
		       limit_price, entry_price, percentage, price_way,
		       copy_code, expiration, status, is_owner, created_at, updated_at
		FROM copy_orders
		WHERE market = $1 AND is_owner = TRUE AND status = $2
		  AND (expiration IS NULL OR expiration > NOW())
		ORDER BY created_at DESC
	`, string(market), string(types.OrderStatusPending))
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// History lists a user's own orders for a market, newest first.
func (s *Service) History(ctx context.Context, userID string, market types.MarketKind) ([]Order, error) {
	if !market.Valid() {
		return nil, errors.New("invalid market")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, market, symbol, side, order_type, quantity,
		       limit_price, entry_price, percentage, price_way,
		       copy_code, expiration, status, is_owner, created_at, updated_at
		FROM copy_orders
		WHERE user_id = $1 AND market = $2
		ORDER BY created_at DESC
	`, userID, string(market))
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	out := make([]Order, 0, 16)
	for rows.Next() {
		var o Order
		var market, side, orderType, status string
		if err := rows.Scan(&o.ID, &o.UserID, &market, &o.Symbol, &side, &orderType, &o.Quantity,
			&o.LimitPrice, &o.EntryPrice, &o.Percentage, &o.PriceWay,
			&o.CopyCode, &o.Expiration, &status, &o.Owner, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Market = types.MarketKind(market)
		o.Side = types.OrderSide(side)
		o.Type = types.OrderType(orderType)
		o.Status = types.OrderStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
