package copytrade

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/assets"
	"cx-tradecore/internal/events"
	"cx-tradecore/internal/types"
)

// SettleDue resolves every pending-profit order whose expiration has passed.
// Each order settles in its own transaction; a failing order is logged and
// left for the next pass instead of aborting the sweep.
func (s *Service) SettleDue(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM copy_orders
		WHERE status = $1 AND is_owner = FALSE
		  AND expiration IS NOT NULL AND expiration <= NOW()
		ORDER BY expiration ASC
		LIMIT 500
	`, string(types.OrderStatusPendingProfit))
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, 32)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	settled := 0
	for _, id := range ids {
		if err := s.settleOne(ctx, id); err != nil {
			log.Printf("[settlement] order %s: %v", id, err)
			continue
		}
		settled++
	}
	return settled, nil
}

// settleOne credits the simulated profit and completes the order. The
// status-guarded update plus the settlement row keyed by order id make a
// re-run after a crash, or a duplicate sweep, a no-op: the profit can only
// be credited once.
func (s *Service) settleOne(ctx context.Context, orderID string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT id, user_id, market, symbol, side, order_type, quantity,
		       limit_price, entry_price, percentage, price_way,
		       copy_code, expiration, status, is_owner, created_at, updated_at
		FROM copy_orders
		WHERE id = $1
		FOR UPDATE
	`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if o.Status != types.OrderStatusPendingProfit || !o.Expired(time.Now().UTC()) {
		return nil
	}

	final, err := s.averageExecutionPrice(ctx, tx, o.ID)
	if err != nil {
		return err
	}
	profit := SettlementProfit(o.EntryPrice, final, o.Quantity, o.Side, o.PriceWay, o.Market)

	tag, err := tx.Exec(ctx, `
		INSERT INTO copy_order_settlements (order_id, profit, settled_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (order_id) DO NOTHING
	`, o.ID, profit)
	if err != nil {
		return err
	}
	// A settlement row already present means the credit landed in an earlier
	// attempt that crashed before flipping the status; only complete the order.
	if tag.RowsAffected() > 0 && profit.GreaterThan(decimal.Zero) {
		quote := assets.QuoteAsset(o.Symbol)
		if _, err := s.balances.Credit(ctx, tx, o.UserID, o.Market.Account(), assets.AssetID(quote), quote, profit, decimal.Zero); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE copy_orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, string(types.OrderStatusCompleted), o.ID, string(types.OrderStatusPendingProfit)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Type: events.TypeProfitSettled, UserID: o.UserID, Data: map[string]any{
			"order_id": o.ID,
			"symbol":   o.Symbol,
			"profit":   profit,
		}})
	}
	return nil
}

func (s *Service) averageExecutionPrice(ctx context.Context, tx pgx.Tx, orderID string) (decimal.Decimal, error) {
	var avg decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(price * quantity) / NULLIF(SUM(quantity), 0), 0)
		FROM copy_order_trades
		WHERE order_id = $1
	`, orderID).Scan(&avg)
	return avg, err
}

// StartSettlementWorker runs SettleDue on a fixed interval until the context
// is cancelled. The first sweep runs immediately.
func (s *Service) StartSettlementWorker(ctx context.Context, interval time.Duration) {
	run := func() {
		n, err := s.SettleDue(ctx)
		if err != nil {
			log.Printf("[settlement] sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[settlement] settled %d orders", n)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
