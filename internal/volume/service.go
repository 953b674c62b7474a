package volume

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/assets"
	"cx-tradecore/internal/types"
)

// Record is the per (user, asset) trading-volume aggregate. It is a derived
// projection of the user's spot and futures balance rows for the asset, not
// an independent source of truth: RecomputeAll rebuilds it from fresh reads.
type Record struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	AssetID            string          `json:"asset_id"`
	AssetName          string          `json:"asset_name"`
	TotalTradingVolume decimal.Decimal `json:"total_trading_volume"`
	RequiredVolume     decimal.Decimal `json:"required_volume"`
	LastUpdated        time.Time       `json:"last_updated"`
}

// Status is the withdrawal-fee eligibility snapshot read by the Transfer
// Engine before a trade->exchange withdrawal.
type Status struct {
	AssetID            string          `json:"asset_id"`
	RequiredVolume     decimal.Decimal `json:"required_volume"`
	TotalTradingVolume decimal.Decimal `json:"total_trading_volume"`
	VolumeMet          bool            `json:"volume_met"`
	RemainingVolume    decimal.Decimal `json:"remaining_volume"`
}

func BuildStatus(assetID string, total, required decimal.Decimal) Status {
	remaining := required.Sub(total)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Status{
		AssetID:            assetID,
		RequiredVolume:     required,
		TotalTradingVolume: total,
		VolumeMet:          total.GreaterThanOrEqual(required),
		RemainingVolume:    remaining,
	}
}

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// GetOrCreate is idempotent: the unique (user_id, asset_id) constraint keeps
// exactly one record per pair under concurrent callers.
func (s *Service) GetOrCreate(ctx context.Context, tx pgx.Tx, userID, assetID, assetName string) (Record, error) {
	rec, err := s.scanOne(tx.QueryRow(ctx, `
		SELECT id, user_id, asset_id, asset_name, total_trading_volume, required_volume, last_updated
		FROM trading_volumes
		WHERE user_id = $1 AND asset_id = $2
		FOR UPDATE
	`, userID, assetID))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, err
	}
	return s.scanOne(tx.QueryRow(ctx, `
		INSERT INTO trading_volumes (user_id, asset_id, asset_name, total_trading_volume, required_volume, last_updated)
		VALUES ($1, $2, $3, 0, 0, NOW())
		ON CONFLICT (user_id, asset_id)
		DO UPDATE SET last_updated = NOW()
		RETURNING id, user_id, asset_id, asset_name, total_trading_volume, required_volume, last_updated
	`, userID, assetID, assetName))
}

func (s *Service) scanOne(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.AssetID, &r.AssetName, &r.TotalTradingVolume, &r.RequiredVolume, &r.LastUpdated)
	return r, err
}

// SetRequiredVolume overwrites the threshold; called right after an
// exchange->trade transfer fixes the new obligation.
func (s *Service) SetRequiredVolume(ctx context.Context, tx pgx.Tx, userID, assetID string, required decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE trading_volumes
		SET required_volume = $1, last_updated = NOW()
		WHERE user_id = $2 AND asset_id = $3
	`, required, userID, assetID)
	return err
}

// AddTradedVolume bumps the aggregate between projection sweeps. Trade
// settlement (external to the core) calls this when fills execute.
func (s *Service) AddTradedVolume(ctx context.Context, userID, assetID string, notional decimal.Decimal) error {
	if notional.LessThanOrEqual(decimal.Zero) {
		return errors.New("traded volume must be positive")
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE trading_volumes
		SET total_trading_volume = total_trading_volume + $1, last_updated = NOW()
		WHERE user_id = $2 AND asset_id = $3
	`, notional, userID, assetID)
	return err
}

// StatusTx reads the eligibility snapshot inside a transfer transaction.
// A user with no record yet has a zero threshold, which counts as met.
func (s *Service) StatusTx(ctx context.Context, tx pgx.Tx, userID, assetID string) (Status, error) {
	var total, required decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT total_trading_volume, required_volume
		FROM trading_volumes
		WHERE user_id = $1 AND asset_id = $2
	`, userID, assetID).Scan(&total, &required)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BuildStatus(assetID, decimal.Zero, decimal.Zero), nil
		}
		return Status{}, err
	}
	return BuildStatus(assetID, total, required), nil
}

func (s *Service) StatusByUser(ctx context.Context, userID, assetID string) (Status, error) {
	var total, required decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT total_trading_volume, required_volume
		FROM trading_volumes
		WHERE user_id = $1 AND asset_id = $2
	`, userID, assetID).Scan(&total, &required)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BuildStatus(assetID, decimal.Zero, decimal.Zero), nil
		}
		return Status{}, err
	}
	return BuildStatus(assetID, total, required), nil
}

// RecomputeAll rebuilds every USDT aggregate from the spot and futures
// balance rows in one statement. Last writer wins: a balance changing under
// the sweep is picked up by the next pass, so the sweep never has to
// serialize with transfers.
func (s *Service) RecomputeAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trading_volumes tv
		SET total_trading_volume = agg.total,
		    required_volume = agg.required,
		    last_updated = NOW()
		FROM (
			SELECT user_id,
			       COALESCE(SUM(balance), 0) AS total,
			       COALESCE(SUM(required_volume), 0) AS required
			FROM account_balances
			WHERE asset_id = $1 AND account_type IN ($2, $3)
			GROUP BY user_id
		) agg
		WHERE tv.user_id = agg.user_id AND tv.asset_id = $1
	`, assets.VolumeTrackedAssetID, string(types.AccountSpot), string(types.AccountFutures))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
