package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountType(t *testing.T) {
	assert.True(t, AccountExchange.Valid())
	assert.True(t, AccountSpot.Valid())
	assert.True(t, AccountFutures.Valid())
	assert.False(t, AccountType("margin").Valid())

	assert.False(t, AccountExchange.IsTrade())
	assert.True(t, AccountSpot.IsTrade())
	assert.True(t, AccountFutures.IsTrade())
}

func TestMarketKindAccount(t *testing.T) {
	assert.Equal(t, AccountSpot, MarketSpot.Account())
	assert.Equal(t, AccountFutures, MarketFutures.Account())
	assert.True(t, MarketSpot.Valid())
	assert.False(t, MarketKind("options").Valid())
}
