package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-tracker/internal/calendar"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := loadConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"data/promotions.json"}, cfg.CatalogFiles)
	assert.Equal(t, 1024, cfg.CacheSize)
	assert.Equal(t, 60, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)

	before := time.Now()
	assert.False(t, cfg.clock()().Before(before), "wall clock without a fixed date")
}

func TestLoadConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PROMO_DATABASE_URL", "postgres://promo@localhost/promo")
	t.Setenv("PROMO_CACHE_SIZE", "16")

	cfg, err := loadConfig([]string{"-today=2025-09-15"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://promo@localhost/promo", cfg.DatabaseURL)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, calendar.MustParse("2025-09-15"), calendar.FromTime(cfg.clock()()))
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("PROMO_TODAY", "15/09/2025")

	_, err := loadConfig([]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
}

func TestApplyPlatformDefaults(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		dbURL    string
		port     string
		wantAddr string
		wantDB   string
	}{
		{
			name:     "platform variables fill defaults",
			cfg:      Config{Addr: defaultAddr},
			dbURL:    "postgres://platform/db",
			port:     "9000",
			wantAddr: "0.0.0.0:9000",
			wantDB:   "postgres://platform/db",
		},
		{
			name:     "explicit values win",
			cfg:      Config{Addr: "127.0.0.1:8081", DatabaseURL: "postgres://explicit/db"},
			dbURL:    "postgres://platform/db",
			port:     "9000",
			wantAddr: "127.0.0.1:8081",
			wantDB:   "postgres://explicit/db",
		},
		{
			name:     "nothing set",
			cfg:      Config{Addr: defaultAddr},
			wantAddr: defaultAddr,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.dbURL)
			t.Setenv("PORT", tt.port)

			cfg := tt.cfg
			cfg.applyPlatformDefaults()
			assert.Equal(t, tt.wantAddr, cfg.Addr)
			assert.Equal(t, tt.wantDB, cfg.DatabaseURL)
		})
	}
}
