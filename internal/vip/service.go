package vip

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Tier carries the rate applied at copy-order settlement and the level that
// gates futures copying. Level 0 means the user may not follow futures
// orders.
type Tier struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Level            int             `json:"level"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
}

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ResolveForUser returns the user's assigned tier. A user without an
// assignment resolves to the zero tier (level 0, zero rate).
func (s *Service) ResolveForUser(ctx context.Context, userID string) (Tier, error) {
	var t Tier
	err := s.pool.QueryRow(ctx, `
		SELECT vt.id, vt.name, vt.level, vt.profit_percentage
		FROM users u
		JOIN vip_tiers vt ON vt.id = u.vip_tier_id
		WHERE u.id = $1
	`, userID).Scan(&t.ID, &t.Name, &t.Level, &t.ProfitPercentage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tier{Name: "none", Level: 0, ProfitPercentage: decimal.Zero}, nil
		}
		return Tier{}, err
	}
	return t, nil
}
