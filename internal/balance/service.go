package balance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cx-tradecore/internal/types"
)

var (
	ErrNotFound            = errors.New("balance not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Balance is one (user, account type, asset) funds record. RequiredVolume is
// only meaningful on trade accounts, where it carries that account's share of
// the withdrawal-fee volume obligation.
type Balance struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	AccountType    types.AccountType `json:"account_type"`
	AssetID        string            `json:"asset_id"`
	AssetName      string            `json:"asset_name"`
	Balance        decimal.Decimal   `json:"balance"`
	RequiredVolume decimal.Decimal   `json:"required_volume"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Get reads without locking, outside any transfer.
func (s *Service) Get(ctx context.Context, userID string, accountType types.AccountType, assetID string) (Balance, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at
		FROM account_balances
		WHERE user_id = $1 AND account_type = $2 AND asset_id = $3
	`, userID, string(accountType), assetID))
}

// GetForUpdate locks the row inside the caller's transaction so concurrent
// debits of the same record serialize. Returns ErrNotFound when the record
// has never been created.
func (s *Service) GetForUpdate(ctx context.Context, tx pgx.Tx, userID string, accountType types.AccountType, assetID string) (Balance, error) {
	return s.scanOne(tx.QueryRow(ctx, `
		SELECT id, user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at
		FROM account_balances
		WHERE user_id = $1 AND account_type = $2 AND asset_id = $3
		FOR UPDATE
	`, userID, string(accountType), assetID))
}

func (s *Service) scanOne(row pgx.Row) (Balance, error) {
	var b Balance
	var accountType string
	err := row.Scan(&b.ID, &b.UserID, &accountType, &b.AssetID, &b.AssetName, &b.Balance, &b.RequiredVolume, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, ErrNotFound
		}
		return Balance{}, err
	}
	b.AccountType = types.AccountType(accountType)
	return b, nil
}

// Credit adds amount to the record, creating it lazily on first credit. A
// freshly created record is seeded with the given required volume; an
// existing record keeps its own.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, userID string, accountType types.AccountType, assetID, assetName string, amount, seedRequiredVolume decimal.Decimal) (Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Balance{}, errors.New("credit amount must be positive")
	}
	return s.scanOne(tx.QueryRow(ctx, `
		INSERT INTO account_balances (user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, account_type, asset_id)
		DO UPDATE SET balance = account_balances.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING id, user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at
	`, userID, string(accountType), assetID, assetName, amount, seedRequiredVolume))
}

// Debit subtracts amount from an already locked record. The caller must hold
// the row lock via GetForUpdate; the guard here rejects before any mutation.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, b Balance, amount decimal.Decimal) (Balance, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Balance{}, errors.New("debit amount must be positive")
	}
	if b.Balance.LessThan(amount) {
		return Balance{}, ErrInsufficientBalance
	}
	return s.scanOne(tx.QueryRow(ctx, `
		UPDATE account_balances
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING id, user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at
	`, amount, b.ID))
}

// SetRequiredVolume overwrites the record's volume obligation share.
func (s *Service) SetRequiredVolume(ctx context.Context, tx pgx.Tx, balanceID string, requiredVolume decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		UPDATE account_balances
		SET required_volume = $1, updated_at = NOW()
		WHERE id = $2
	`, requiredVolume, balanceID)
	return err
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Balance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, account_type, asset_id, asset_name, balance, required_volume, updated_at
		FROM account_balances
		WHERE user_id = $1
		ORDER BY asset_name, account_type
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Balance, 0, 8)
	for rows.Next() {
		var b Balance
		var accountType string
		if err := rows.Scan(&b.ID, &b.UserID, &accountType, &b.AssetID, &b.AssetName, &b.Balance, &b.RequiredVolume, &b.UpdatedAt); err != nil {
			return nil, err
		}
		b.AccountType = types.AccountType(accountType)
		out = append(out, b)
	}
	return out, rows.Err()
}
