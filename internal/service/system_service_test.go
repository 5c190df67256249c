package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/testutil"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/version"
)

func TestSystemService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)

	require.NoError(t, svc.CheckHealth())

	info, err := svc.CheckVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, version.Version, info.AppVersion)
	assert.Equal(t, "2", info.DbVersion)
	assert.True(t, info.Features["dividend_reinvestment"])
}

func TestSystemService_ClosedDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)
	db.Close()

	assert.Error(t, svc.CheckHealth())
}
