package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/assets"
	"cx-tradecore/internal/balance"
	"cx-tradecore/internal/events"
	"cx-tradecore/internal/types"
	"cx-tradecore/internal/volume"
)

var (
	ErrInsufficientExchangeBalance = errors.New("insufficient exchange balance")
	ErrInsufficientTradeBalance    = errors.New("insufficient trade balance")
	ErrUnsupportedAsset            = errors.New("asset is not withdrawable from trade accounts")
)

// Record is the immutable audit entry written once per completed transfer.
// It snapshots the volume state the fee decision was made against.
type Record struct {
	ID             string               `json:"id"`
	UserID         string               `json:"user_id"`
	FromAccount    types.AccountType    `json:"from_account"`
	ToAccount      types.AccountType    `json:"to_account"`
	AssetID        string               `json:"asset_id"`
	AssetName      string               `json:"asset_name"`
	Amount         decimal.Decimal      `json:"amount"`
	Fee            decimal.Decimal      `json:"fee"`
	FeeType        types.FeeType        `json:"fee_type"`
	NetAmount      decimal.Decimal      `json:"net_amount"`
	RequiredVolume decimal.Decimal      `json:"required_volume"`
	CurrentVolume  decimal.Decimal      `json:"current_volume"`
	VolumeMet      bool                 `json:"volume_met"`
	Status         types.TransferStatus `json:"status"`
	TransferType   types.TransferType   `json:"transfer_type"`
	CreatedAt      time.Time            `json:"created_at"`
}

type Service struct {
	pool     *pgxpool.Pool
	balances *balance.Service
	volumes  *volume.Service
	bus      *events.Bus
}

func NewService(pool *pgxpool.Pool, balances *balance.Service, volumes *volume.Service, bus *events.Bus) *Service {
	return &Service{pool: pool, balances: balances, volumes: volumes, bus: bus}
}

// ExchangeToTrade moves funds from the main account into spot or futures.
// For the volume-tracked asset the transfer fixes a fresh 2x volume
// obligation on the destination; no fee is ever charged in this direction.
func (s *Service) ExchangeToTrade(ctx context.Context, userID string, dest types.AccountType, assetID string, amount decimal.Decimal) (Record, error) {
	if !dest.IsTrade() {
		return Record{}, errors.New("destination must be spot or futures")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Record{}, errors.New("amount must be positive")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	src, err := s.balances.GetForUpdate(ctx, tx, userID, types.AccountExchange, assetID)
	if err != nil {
		if errors.Is(err, balance.ErrNotFound) {
			return Record{}, ErrInsufficientExchangeBalance
		}
		return Record{}, err
	}
	if _, err := s.balances.Debit(ctx, tx, src, amount); err != nil {
		if errors.Is(err, balance.ErrInsufficientBalance) {
			return Record{}, ErrInsufficientExchangeBalance
		}
		return Record{}, err
	}

	tracked := assets.IsVolumeTracked(assetID)
	required := decimal.Zero
	if tracked {
		required = RequiredVolumeFor(amount)
	}
	dst, err := s.balances.Credit(ctx, tx, userID, dest, assetID, src.AssetName, amount, required)
	if err != nil {
		return Record{}, err
	}

	st := volume.Status{AssetID: assetID}
	if tracked {
		if err := s.balances.SetRequiredVolume(ctx, tx, dst.ID, required); err != nil {
			return Record{}, err
		}
		if _, err := s.volumes.GetOrCreate(ctx, tx, userID, assetID, src.AssetName); err != nil {
			return Record{}, err
		}
		if err := s.volumes.SetRequiredVolume(ctx, tx, userID, assetID, required); err != nil {
			return Record{}, err
		}
		if st, err = s.volumes.StatusTx(ctx, tx, userID, assetID); err != nil {
			return Record{}, err
		}
	}

	rec, err := s.insertRecord(ctx, tx, Record{
		UserID:         userID,
		FromAccount:    types.AccountExchange,
		ToAccount:      dest,
		AssetID:        assetID,
		AssetName:      src.AssetName,
		Amount:         amount,
		Fee:            decimal.Zero,
		FeeType:        types.FeeNone,
		NetAmount:      amount,
		RequiredVolume: st.RequiredVolume,
		CurrentVolume:  st.TotalTradingVolume,
		VolumeMet:      st.VolumeMet,
		Status:         types.TransferStatusCompleted,
		TransferType:   types.TransferExchangeToTrade,
	})
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	s.publish(rec)
	return rec, nil
}

// TradeToExchange withdraws from a trade account back to the main account.
// Only the volume-tracked asset is withdrawable this way; the fee policy is
// volume-gated and the source account's obligation shrinks to 2x its
// remaining balance.
func (s *Service) TradeToExchange(ctx context.Context, userID string, from types.AccountType, assetID string, amount decimal.Decimal) (Record, error) {
	if !from.IsTrade() {
		return Record{}, errors.New("source must be spot or futures")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Record{}, errors.New("amount must be positive")
	}
	if !assets.IsVolumeTracked(assetID) {
		return Record{}, ErrUnsupportedAsset
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	src, err := s.balances.GetForUpdate(ctx, tx, userID, from, assetID)
	if err != nil {
		if errors.Is(err, balance.ErrNotFound) {
			return Record{}, ErrInsufficientTradeBalance
		}
		return Record{}, err
	}
	st, err := s.volumes.StatusTx(ctx, tx, userID, assetID)
	if err != nil {
		return Record{}, err
	}
	fee, net, feeType := WithdrawalFee(amount, st)

	remaining, err := s.balances.Debit(ctx, tx, src, amount)
	if err != nil {
		if errors.Is(err, balance.ErrInsufficientBalance) {
			return Record{}, ErrInsufficientTradeBalance
		}
		return Record{}, err
	}
	if err := s.balances.SetRequiredVolume(ctx, tx, src.ID, RequiredVolumeFor(remaining.Balance)); err != nil {
		return Record{}, err
	}
	if _, err := s.balances.Credit(ctx, tx, userID, types.AccountExchange, assetID, src.AssetName, net, decimal.Zero); err != nil {
		return Record{}, err
	}

	rec, err := s.insertRecord(ctx, tx, Record{
		UserID:         userID,
		FromAccount:    from,
		ToAccount:      types.AccountExchange,
		AssetID:        assetID,
		AssetName:      src.AssetName,
		Amount:         amount,
		Fee:            fee,
		FeeType:        feeType,
		NetAmount:      net,
		RequiredVolume: st.RequiredVolume,
		CurrentVolume:  st.TotalTradingVolume,
		VolumeMet:      st.VolumeMet,
		Status:         types.TransferStatusCompleted,
		TransferType:   types.TransferTradeToExchange,
	})
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	s.publish(rec)
	return rec, nil
}

// TradeToTrade moves funds between spot and futures. Always fee-free and
// never touches the volume obligation.
func (s *Service) TradeToTrade(ctx context.Context, userID string, from, to types.AccountType, assetID string, amount decimal.Decimal) (Record, error) {
	if !from.IsTrade() || !to.IsTrade() {
		return Record{}, errors.New("accounts must be spot or futures")
	}
	if from == to {
		return Record{}, errors.New("source and destination must differ")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Record{}, errors.New("amount must be positive")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	src, err := s.balances.GetForUpdate(ctx, tx, userID, from, assetID)
	if err != nil {
		if errors.Is(err, balance.ErrNotFound) {
			return Record{}, ErrInsufficientTradeBalance
		}
		return Record{}, err
	}
	if _, err := s.balances.Debit(ctx, tx, src, amount); err != nil {
		if errors.Is(err, balance.ErrInsufficientBalance) {
			return Record{}, ErrInsufficientTradeBalance
		}
		return Record{}, err
	}
	if _, err := s.balances.Credit(ctx, tx, userID, to, assetID, src.AssetName, amount, decimal.Zero); err != nil {
		return Record{}, err
	}

	st, err := s.volumes.StatusTx(ctx, tx, userID, assetID)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.insertRecord(ctx, tx, Record{
		UserID:         userID,
		FromAccount:    from,
		ToAccount:      to,
		AssetID:        assetID,
		AssetName:      src.AssetName,
		Amount:         amount,
		Fee:            decimal.Zero,
		FeeType:        types.FeeNone,
		NetAmount:      amount,
		RequiredVolume: st.RequiredVolume,
		CurrentVolume:  st.TotalTradingVolume,
		VolumeMet:      st.VolumeMet,
		Status:         types.TransferStatusCompleted,
		TransferType:   types.TransferTradeToTrade,
	})
	if err != nil {
		return Record{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	s.publish(rec)
	return rec, nil
}

func (s *Service) insertRecord(ctx context.Context, tx pgx.Tx, r Record) (Record, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO transfers (
			user_id, from_account, to_account, asset_id, asset_name,
			amount, fee, fee_type, net_amount,
			required_volume, current_volume, volume_met,
			status, transfer_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		RETURNING id, created_at
	`, r.UserID, string(r.FromAccount), string(r.ToAccount), r.AssetID, r.AssetName,
		r.Amount, r.Fee, string(r.FeeType), r.NetAmount,
		r.RequiredVolume, r.CurrentVolume, r.VolumeMet,
		string(r.Status), string(r.TransferType)).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

func (s *Service) publish(rec Record) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Type: events.TypeTransferCompleted, UserID: rec.UserID, Data: rec})
}

// History returns the user's transfer records, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, from_account, to_account, asset_id, asset_name,
		       amount, fee, fee_type, net_amount,
		       required_volume, current_volume, volume_met,
		       status, transfer_type, created_at
		FROM transfers
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0, limit)
	for rows.Next() {
		var r Record
		var from, to, feeType, status, transferType string
		if err := rows.Scan(&r.ID, &r.UserID, &from, &to, &r.AssetID, &r.AssetName,
			&r.Amount, &r.Fee, &feeType, &r.NetAmount,
			&r.RequiredVolume, &r.CurrentVolume, &r.VolumeMet,
			&status, &transferType, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.FromAccount = types.AccountType(from)
		r.ToAccount = types.AccountType(to)
		r.FeeType = types.FeeType(feeType)
		r.Status = types.TransferStatus(status)
		r.TransferType = types.TransferType(transferType)
		out = append(out, r)
	}
	return out, rows.Err()
}
