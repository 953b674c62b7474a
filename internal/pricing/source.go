package pricing

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrPriceUnavailable = errors.New("price unavailable for symbol")

// Source supplies the current price for a trading symbol. The real exchange
// feed lives behind this interface; the core never talks to an exchange
// directly.
type Source interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// PGSource reads prices from the prices table, which an external feed
// process keeps fresh.
type PGSource struct {
	pool *pgxpool.Pool
}

func NewPGSource(pool *pgxpool.Pool) *PGSource {
	return &PGSource{pool: pool}
}

func (s *PGSource) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.pool.QueryRow(ctx, "select price from prices where symbol = $1", normalize(symbol)).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrPriceUnavailable
		}
		return decimal.Zero, err
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrPriceUnavailable
	}
	return price, nil
}

// StaticSource serves fixed prices, used in tests and development.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStaticSource() *StaticSource {
	return &StaticSource{prices: make(map[string]decimal.Decimal)}
}

func (s *StaticSource) Set(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	s.prices[normalize(symbol)] = price
	s.mu.Unlock()
}

func (s *StaticSource) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	price, ok := s.prices[normalize(symbol)]
	s.mu.RUnlock()
	if !ok || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrPriceUnavailable
	}
	return price, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
