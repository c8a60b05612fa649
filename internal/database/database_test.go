package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stashDatabaseURL(t *testing.T) {
	t.Helper()
	originalURL, existed := os.LookupEnv("DATABASE_URL")
	t.Cleanup(func() {
		if existed {
			_ = os.Setenv("DATABASE_URL", originalURL)
		} else {
			_ = os.Unsetenv("DATABASE_URL")
		}
	})
}

func TestConnect_MissingDatabaseURL(t *testing.T) {
	stashDatabaseURL(t)
	_ = os.Unsetenv("DATABASE_URL")

	err := Connect()

	require.Error(t, err, "Connect should fail when DATABASE_URL is not set")
	assert.Contains(t, err.Error(), "DATABASE_URL environment variable not set")
}

func TestConnectWithURL_InvalidURL(t *testing.T) {
	err := ConnectWithURL("invalid://not-a-database")
	require.Error(t, err, "ConnectWithURL should fail with an unparseable URL")
}

func TestClose_NilDB(t *testing.T) {
	originalDB := DB
	defer func() { DB = originalDB }()

	DB = nil
	err := Close()
	assert.NoError(t, err, "Close should not error when DB is nil")
}
