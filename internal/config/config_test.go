package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 7497, cfg.Server.Port)
	require.Equal(t, 32, cfg.Server.MaxClients)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  host: 0.0.0.0
  port: 5555
  max_clients: 10
protocol:
  version: 176
  message_rate_limit: 25
authentication:
  accounts:
    - account_id: DU123456
      username: demo
      password: demo
      account_type: PAPER
      base_currency: USD
      initial_balance: 1000000
market:
  symbols: [NVDA, AAPL]
  tick_interval: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 5555, cfg.Server.Port)
	require.Equal(t, 10, cfg.Server.MaxClients)
	require.Equal(t, 25, cfg.Protocol.MessageRateLimit)
	require.Len(t, cfg.Authentication.Accounts, 1)
	require.Equal(t, []string{"NVDA", "AAPL"}, cfg.Market.Symbols)
}

func TestLoadSyntheticHistoricalDataAndSnapshotPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
protocol:
  synthetic_historical_data: true
market:
  snapshot_path: /tmp/ibsim-feed.snap
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Protocol.SyntheticHistoricalData)
	require.Equal(t, "/tmp/ibsim-feed.snap", cfg.Market.SnapshotPath)
}

func TestDefaultsLeaveSyntheticHistoricalDataAndSnapshotPathOff(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.Protocol.SyntheticHistoricalData)
	require.Empty(t, cfg.Market.SnapshotPath)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IB_SIM_HOST", "10.0.0.5")
	t.Setenv("IB_SIM_PORT", "9999")
	t.Setenv("IB_SIM_DB_PATH", "/tmp/ibsim.db")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", cfg.Server.Host)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, "/tmp/ibsim.db", cfg.Database.Path)
}

func TestEnvOverrideIgnoresInvalidPort(t *testing.T) {
	t.Setenv("IB_SIM_PORT", "not-a-port")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7497, cfg.Server.Port)
}
