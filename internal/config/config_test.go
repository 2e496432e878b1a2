package config

import (
	"testing"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Store:                  StoreMemory,
		JWTSecret:              "test-secret",
		SweepInterval:          time.Minute,
		BookingGracePeriod:     5 * time.Minute,
		ReconcileInterval:      time.Minute,
		DispatchInterval:       30 * time.Second,
		ReconciledPaymentTypes: []string{"pix"},
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Store = StorePostgres
	assert.Error(t, cfg.Validate(), "postgres requires DB_DSN")
	cfg.DBDSN = "postgres://localhost/disk_entulho"
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate(), "admin API needs a signing key")

	cfg = validConfig()
	cfg.Store = "sqlite"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.BookingGracePeriod = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.ReconcileInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.ReconciledPaymentTypes = []string{"pix", "cash"}
	assert.Error(t, cfg.Validate(), "cash is never reconciled")

	cfg = validConfig()
	cfg.ReconciledPaymentTypes = []string{"bitcoin"}
	assert.Error(t, cfg.Validate())
}

func TestConfig_PaymentTypes(t *testing.T) {
	cfg := validConfig()
	cfg.ReconciledPaymentTypes = []string{"pix", "credit"}

	types, err := cfg.PaymentTypes()
	require.NoError(t, err)
	assert.Equal(t, []model.PaymentType{model.PaymentTypePix, model.PaymentTypeCredit}, types)
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BOOKING_GRACE_PERIOD", "10m")
	t.Setenv("ADMIN_TELEGRAM_IDS", "111,222")
	t.Setenv("GATEWAY_URL", "https://sandbox.gateway.test")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10*time.Minute, cfg.BookingGracePeriod)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, []int64{111, 222}, cfg.AdminTelegramIDs)
	assert.Equal(t, []string{"pix"}, cfg.ReconciledPaymentTypes)
	assert.True(t, cfg.GatewayEnabled())
}
