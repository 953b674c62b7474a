package copytrade

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cx-tradecore/internal/balance"
	"cx-tradecore/internal/events"
	"cx-tradecore/internal/pricing"
	"cx-tradecore/internal/types"
	"cx-tradecore/internal/vip"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func createUser(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	email := fmt.Sprintf("copy-%d@test.local", time.Now().UnixNano())
	var id string
	err := pool.QueryRow(context.Background(),
		"insert into users (email) values ($1) returning id", email).Scan(&id)
	require.NoError(t, err)
	return id
}

func assignTier(t *testing.T, pool *pgxpool.Pool, userID, tierName string) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		UPDATE users SET vip_tier_id = (SELECT id FROM vip_tiers WHERE name = $1)
		WHERE id = $2
	`, tierName, userID)
	require.NoError(t, err)
}

func seedBalance(t *testing.T, pool *pgxpool.Pool, userID string, account types.AccountType, amount string) {
	t.Helper()
	ctx := context.Background()
	balances := balance.NewService(pool)
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	_, err = balances.Credit(ctx, tx, userID, account, "1280", "USDT", dec(amount), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func insertOwnerOrder(t *testing.T, pool *pgxpool.Pool, ownerID string, market types.MarketKind, priceWay int, pct string, expiresIn time.Duration) string {
	t.Helper()
	code := fmt.Sprintf("CODE-%d", time.Now().UnixNano())
	_, err := pool.Exec(context.Background(), `
		INSERT INTO copy_orders (
			user_id, market, symbol, side, order_type, quantity,
			limit_price, entry_price, percentage, price_way,
			copy_code, expiration, status, is_owner
		) VALUES ($1, $2, 'BTC_USDT', 'buy', 'limit', 0.5, 100, 30000, $3, $4, $5, NOW() + $6::interval, 'pending', TRUE)
	`, ownerID, string(market), dec(pct), priceWay, code, fmt.Sprintf("%d seconds", int(expiresIn.Seconds())))
	require.NoError(t, err)
	return code
}

func newTestService(pool *pgxpool.Pool, prices pricing.Source) *Service {
	return NewService(pool, balance.NewService(pool), vip.NewService(pool), prices, events.NewBus())
}

func TestFollowSpot(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	prices := pricing.NewStaticSource()
	prices.Set("BTC_USDT", dec("30000"))
	svc := newTestService(pool, prices)

	owner := createUser(t, pool)
	follower := createUser(t, pool)
	seedBalance(t, pool, follower, types.AccountSpot, "150")
	code := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", time.Hour)

	order, err := svc.Follow(ctx, follower, code, types.MarketSpot)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusPendingProfit, order.Status)
	assert.False(t, order.Owner)
	assert.True(t, order.EntryPrice.Equal(dec("30000")))
	assert.True(t, order.Percentage.Equal(dec("2")), "spot inherits the owner rate")
	require.Len(t, order.Trades, 1)
	assert.True(t, order.Trades[0].Price.Equal(dec("30600")), "fill = %s", order.Trades[0].Price)

	_, err = svc.Follow(ctx, follower, code, types.MarketSpot)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
}

func TestFollowRejections(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	prices := pricing.NewStaticSource()
	prices.Set("BTC_USDT", dec("30000"))
	svc := newTestService(pool, prices)

	owner := createUser(t, pool)
	follower := createUser(t, pool)

	_, err := svc.Follow(ctx, follower, "NO-SUCH-CODE", types.MarketSpot)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	expired := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", -time.Hour)
	_, err = svc.Follow(ctx, follower, expired, types.MarketSpot)
	assert.ErrorIs(t, err, ErrOrderExpired)

	// Quote balance below the owner's limit price.
	poor := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", time.Hour)
	_, err = svc.Follow(ctx, follower, poor, types.MarketSpot)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestFollowFuturesTierGate(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	prices := pricing.NewStaticSource()
	prices.Set("BTC_USDT", dec("30000"))
	svc := newTestService(pool, prices)

	owner := createUser(t, pool)
	follower := createUser(t, pool)
	seedBalance(t, pool, follower, types.AccountFutures, "150")
	code := insertOwnerOrder(t, pool, owner, types.MarketFutures, types.PriceWayShort, "2", time.Hour)

	_, err := svc.Follow(ctx, follower, code, types.MarketFutures)
	assert.ErrorIs(t, err, ErrIneligibleTier)

	assignTier(t, pool, follower, "gold")
	order, err := svc.Follow(ctx, follower, code, types.MarketFutures)
	require.NoError(t, err)
	assert.True(t, order.Percentage.Equal(dec("4")), "futures uses the follower tier rate")
	require.Len(t, order.Trades, 1)
	// Short direction: the synthetic fill lands below the entry.
	assert.True(t, order.Trades[0].Price.Equal(dec("28800")), "fill = %s", order.Trades[0].Price)
}

func TestFollowFuturesOrderChecksPrecedeTierGate(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	prices := pricing.NewStaticSource()
	prices.Set("BTC_USDT", dec("30000"))
	svc := newTestService(pool, prices)

	owner := createUser(t, pool)
	follower := createUser(t, pool) // no tier assigned

	_, err := svc.Follow(ctx, follower, "NO-SUCH-CODE", types.MarketFutures)
	assert.ErrorIs(t, err, ErrOrderNotFound, "a missing order must not be masked by the tier gate")

	expired := insertOwnerOrder(t, pool, owner, types.MarketFutures, types.PriceWayLong, "2", -time.Hour)
	_, err = svc.Follow(ctx, follower, expired, types.MarketFutures)
	assert.ErrorIs(t, err, ErrOrderExpired)

	code := insertOwnerOrder(t, pool, owner, types.MarketFutures, types.PriceWayLong, "2", time.Hour)
	_, err = svc.Follow(ctx, follower, code, types.MarketFutures)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// With the order sound and funded, tier eligibility is what remains.
	seedBalance(t, pool, follower, types.AccountFutures, "150")
	_, err = svc.Follow(ctx, follower, code, types.MarketFutures)
	assert.ErrorIs(t, err, ErrIneligibleTier)
}

func TestSettlementIdempotent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	prices := pricing.NewStaticSource()
	prices.Set("BTC_USDT", dec("30000"))
	svc := newTestService(pool, prices)
	balances := balance.NewService(pool)

	owner := createUser(t, pool)
	follower := createUser(t, pool)
	seedBalance(t, pool, follower, types.AccountSpot, "150")
	code := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", time.Hour)

	order, err := svc.Follow(ctx, follower, code, types.MarketSpot)
	require.NoError(t, err)

	// Not due yet.
	n, err := svc.SettleDue(ctx)
	require.NoError(t, err)
	before, err := balances.Get(ctx, follower, types.AccountSpot, "1280")
	require.NoError(t, err)
	assert.True(t, before.Balance.Equal(dec("150")))

	_, err = pool.Exec(ctx, "UPDATE copy_orders SET expiration = NOW() - interval '1 minute' WHERE id = $1", order.ID)
	require.NoError(t, err)

	n, err = svc.SettleDue(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	// Entry 30000, fill 30600, qty 0.5: profit 300.
	after, err := balances.Get(ctx, follower, types.AccountSpot, "1280")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(dec("450")), "balance = %s", after.Balance)

	var status string
	require.NoError(t, pool.QueryRow(ctx, "SELECT status FROM copy_orders WHERE id = $1", order.ID).Scan(&status))
	assert.Equal(t, string(types.OrderStatusCompleted), status)

	// A second sweep must not credit again.
	_, err = svc.SettleDue(ctx)
	require.NoError(t, err)
	again, err := balances.Get(ctx, follower, types.AccountSpot, "1280")
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(dec("450")))
}

func TestAvailableOrdersHidesExpired(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	svc := newTestService(pool, pricing.NewStaticSource())

	owner := createUser(t, pool)
	open := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", time.Hour)
	stale := insertOwnerOrder(t, pool, owner, types.MarketSpot, types.PriceWayLong, "2", -time.Hour)

	orders, err := svc.AvailableOrders(ctx, types.MarketSpot)
	require.NoError(t, err)
	codes := make(map[string]bool, len(orders))
	for _, o := range orders {
		codes[o.CopyCode] = true
	}
	assert.True(t, codes[open])
	assert.False(t, codes[stale])
}
