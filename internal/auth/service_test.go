package auth

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewService(pool, "tradecore-test", []byte("test-secret"), time.Hour, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()
	email := fmt.Sprintf("auth-%d@test.local", time.Now().UnixNano())

	userID, err := svc.Register(ctx, email, "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	token, err := svc.Login(ctx, email, "hunter22")
	require.NoError(t, err)

	subject, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, subject)

	// Email lookup is case-insensitive.
	_, err = svc.Login(ctx, "  "+email+"  ", "hunter22")
	require.NoError(t, err)

	_, err = svc.Login(ctx, email, "wrong")
	assert.EqualError(t, err, "invalid credentials")
	_, err = svc.Login(ctx, "nobody@test.local", "hunter22")
	assert.EqualError(t, err, "invalid credentials")
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	a := NewService(pool, "issuer-a", []byte("test-secret"), time.Hour, nil)
	b := NewService(pool, "issuer-b", []byte("test-secret"), time.Hour, nil)
	token, err := a.signToken("user-1")
	require.NoError(t, err)
	_, err = b.ParseToken(token)
	assert.Error(t, err)
}
