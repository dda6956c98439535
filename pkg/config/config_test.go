package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Stock.CacheTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.EqualValues(t, 25, cfg.DB.MaxConns)
	assert.EqualValues(t, 2, cfg.DB.MinConns)
}

func TestFromViper_LeeVariables(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "MEMORY")
	v.Set("HTTP_PORT", "9090")
	v.Set("REDIS_URL", "redis://localhost:6379/0")
	v.Set("STOCK_CACHE_TTL_SECONDS", 5)
	v.Set("METRICS_ENABLED", false)
	v.Set("DB_MAX_CONNS", "8")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Stock.CacheTTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.EqualValues(t, 8, cfg.DB.MaxConns)
}

func TestFromViper_PuertoInvalido_UsaDefecto(t *testing.T) {
	v := viper.New()
	v.Set("DB_PORT", "abc")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "mysql")

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "bodegas", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/bodegas?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://otro"
	assert.Equal(t, "postgresql://otro", c.ConnectionString())
}

func TestFromViper_Validaciones(t *testing.T) {
	cases := map[string]map[string]any{
		"puerto http fuera de rango": {"HTTP_PORT": 70000},
		"production sin secret":      {"APP_ENV": "production"},
	}
	for name, vals := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range vals {
				v.Set(k, val)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}

	v := viper.New()
	v.Set("APP_ENV", "production")
	v.Set("JWT_SECRET", "s3cr3t")
	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.JWT.Expiration)
	assert.Equal(t, "bodegas-api", cfg.JWT.Issuer)
}
