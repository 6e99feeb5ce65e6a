package config

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, uint64(10), cfg.Fundraiser.MinContributionBps)
		assert.Equal(t, uint64(1000), cfg.Fundraiser.MaxContributionBps)
		assert.True(t, cfg.Faucet.Enabled)
		assert.False(t, cfg.Database.Enabled())
		assert.False(t, cfg.Broker.Enabled())
	})

	t.Run("Environment Overrides", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("MAX_CONTRIBUTION_BPS", "2500")
		t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
		t.Setenv("DB_HOST", "db")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, uint64(2500), cfg.Fundraiser.MaxContributionBps)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
		assert.True(t, cfg.Database.Enabled())
	})

	t.Run("Rejects Malformed Numbers", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_BURST", "many")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestInitLedger(t *testing.T) {
	t.Run("In Memory Ledger", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		proc, err := InitLedger(context.Background(), cfg, prometheus.NewRegistry())
		require.NoError(t, err)
		require.NotNil(t, Ledger)
		assert.Equal(t, cfg.Fundraiser.ProgramID, proc.ID().String())

		acc, ok := Ledger.Account(proc.ID())
		require.True(t, ok)
		assert.True(t, acc.Executable)
	})

	t.Run("Rejects Bad Program ID", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		cfg.Fundraiser.ProgramID = "not-a-key"

		_, err = InitLedger(context.Background(), cfg, nil)
		assert.Error(t, err)
	})

	t.Run("Rejects Inverted Bounds", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		cfg.Fundraiser.MinContributionBps = 500
		cfg.Fundraiser.MaxContributionBps = 100

		_, err = InitLedger(context.Background(), cfg, nil)
		assert.Error(t, err)
	})
}
