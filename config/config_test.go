package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-eligibility/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Minute, cfg.Server.RateWindow)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, 200, cfg.Forest.NumTrees)
	assert.Equal(t, 8, cfg.Forest.MaxDepth)
	assert.Equal(t, int64(42), cfg.Forest.Seed)
	assert.True(t, cfg.Forest.BalancedClassWeight)
	assert.Equal(t, 0.2, cfg.Training.TestFraction)
	assert.Equal(t, 1.5, cfg.Scoring.AutoApproveIncomeFactor)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  rate_window: 30s
store:
  driver: sqlite
  path: /tmp/eligibility.db
forest:
  trees: 50
scoring:
  threshold: 1.2
criteria:
  home loan:
    min_income: 60000
    preferred_income: 90000
    min_credit: 650
    preferred_credit: 720
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.RateWindow)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Forest.NumTrees)
	assert.Equal(t, 8, cfg.Forest.MaxDepth)
	assert.Equal(t, 1.2, cfg.Scoring.Threshold)

	table, err := cfg.CriteriaTable()
	require.NoError(t, err)
	home, err := table.Lookup(domain.HomeLoan)
	require.NoError(t, err)
	assert.Equal(t, 650, home.MinCredit)
	car, err := table.Lookup(domain.CarLoan)
	require.NoError(t, err)
	assert.Equal(t, 600, car.MinCredit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "forest:\n  trees: 50\n")
	t.Setenv("LOANELIG_FOREST_TREES", "75")
	t.Setenv("LOANELIG_FOREST_MAX_DEPTH", "6")
	t.Setenv("LOANELIG_SERVER_ADDR", ":7070")
	t.Setenv("LOANELIG_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Forest.NumTrees)
	assert.Equal(t, 6, cfg.Forest.MaxDepth)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "generator:\n  count: 123\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Generator.Count)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad driver", "store:\n  driver: postgres\n"},
		{"bad test fraction", "training:\n  test_fraction: 1.5\n"},
		{"no trees", "forest:\n  trees: 0\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"unknown loan type", "criteria:\n  boat:\n    min_income: 1\n    preferred_income: 2\n    min_credit: 600\n    preferred_credit: 650\n"},
		{"preferred below minimum", "criteria:\n  car:\n    min_income: 30000\n    preferred_income: 20000\n    min_credit: 600\n    preferred_credit: 650\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestPolicy(t *testing.T) {
	cfg := Default()
	cfg.Scoring.Threshold = 5
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.Scoring().Threshold)
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "forest.max_depth", envTransformFunc("LOANELIG_FOREST_MAX_DEPTH"))
	assert.Equal(t, "server.addr", envTransformFunc("LOANELIG_SERVER_ADDR"))
	assert.Equal(t, "", envTransformFunc(ConfigPathEnvVar))
}
