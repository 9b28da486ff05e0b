package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-floor/models"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "DB_DRIVER", "DB_DSN", "JWT_SECRET",
		"STORE_TIMEOUT", "STORE_RETRIES", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, uint64(3), cfg.StoreRetries)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimitBurst)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("STORE_RETRIES", "5")
	t.Setenv("CORS_ORIGINS", " https://pos.example.com , ,https://kds.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, uint64(5), cfg.StoreRetries)
	assert.Equal(t, []string{"https://pos.example.com", "https://kds.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"driver":  {"DB_DRIVER", "postgres"},
		"timeout": {"STORE_TIMEOUT", "soon"},
		"retries": {"STORE_RETRIES", "-1"},
		"burst":   {"RATE_LIMIT_BURST", "many"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestReleaseModeNeedsSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestInitDBMigratesSqlite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", DBDSN: ":memory:"}

	db, err := InitDB(cfg)
	require.NoError(t, err)

	for _, model := range []interface{}{&models.Table{}, &models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.MenuItem{}, &models.StatusChange{}} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}
