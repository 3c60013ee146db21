package db

import (
	"context"
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestPingAndClose(t *testing.T) {
	t.Parallel()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Ping(context.Background(), gdb))
	require.NoError(t, Close(gdb))
	require.Error(t, Ping(context.Background(), gdb))
}

func TestOpen_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is required for this test")
	}

	gdb, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Ping(context.Background(), gdb))
}
