package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, "0.50", cfg.FinePerDay.StringFixed(2))
	assert.Equal(t, "25.00", cfg.LostItemFee.StringFixed(2))
	assert.True(t, cfg.FineBlockThreshold.IsZero())
	assert.Equal(t, "@every 1h", cfg.SweepSchedule)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOAN_PERIOD_DAYS", "21")
	t.Setenv("FINE_PER_DAY", "0.25")
	t.Setenv("FINE_BLOCK_THRESHOLD", "5")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("SWEEP_SCHEDULE", "0 2 * * *")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 21*24*time.Hour, cfg.Circulation().LoanPeriod)
	assert.Equal(t, "0.25", cfg.Circulation().Fines.PerDay.StringFixed(2))
	assert.Equal(t, "5.00", cfg.Circulation().Fines.BlockThreshold.StringFixed(2))
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnvRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{"PORT": "eighty"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"negative fine", map[string]string{"FINE_PER_DAY": "-1"}},
		{"bad decimal", map[string]string{"LOST_ITEM_FEE": "twenty"}},
		{"bad schedule", map[string]string{"SWEEP_SCHEDULE": "every tuesday"}},
		{"zero loan period", map[string]string{"LOAN_PERIOD_DAYS": "0"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"default secret in production", map[string]string{"APP_ENV": "production"}},
		{"short secret in production", map[string]string{"APP_ENV": "production", "JWT_SECRET": "tiny"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestProductionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_PATH=/tmp/from-dotenv.db\n"), 0o600))
	t.Chdir(dir)
	// godotenv sets the variable for the process; clear it when done.
	t.Setenv("DB_PATH", "")
	os.Unsetenv("DB_PATH")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath)
}
