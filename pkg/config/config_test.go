package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:      EnvDev,
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8888},
		Database: DBConfig{Driver: DBDriverPostgres, DSN: "postgres://localhost/db"},
		PayPal: PayPalConfig{
			BaseURL:      "https://api-m.sandbox.paypal.com",
			ClientID:     "id",
			ClientSecret: "secret",
			Timeout:      20 * time.Second,
		},
		Billing: BillingConfig{ProPlanMarker: "pro", TimeZone: "UTC", PollInterval: 5 * time.Minute},
		Webhook: WebhookConfig{DedupeTTL: time.Hour},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingSecrets(t *testing.T) {
	c := validConfig()
	c.PayPal.ClientID = ""
	c.PayPal.ClientSecret = ""

	err := c.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConfiguration))
	require.Contains(t, err.Error(), "ClientID")
	require.Contains(t, err.Error(), "ClientSecret")
}

func TestValidate_BadTimeZone(t *testing.T) {
	c := validConfig()
	c.Billing.TimeZone = "Mars/Olympus"
	require.ErrorIs(t, c.Validate(), ErrConfiguration)
}

func TestValidate_UnknownDriver(t *testing.T) {
	c := validConfig()
	c.Database.Driver = "sqlite"
	require.ErrorIs(t, c.Validate(), ErrConfiguration)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_PAYPAL_CLIENT_ID", "env-id")
	t.Setenv("APP_PAYPAL_CLIENT_SECRET", "env-secret")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, "env-id", c.PayPal.ClientID)
	require.Equal(t, 20*time.Second, c.PayPal.Timeout)
	require.Equal(t, 5*time.Minute, c.Billing.PollInterval)
	require.Equal(t, "pro", c.Billing.ProPlanMarker)
}

func TestNew_MissingCredentialsRefusesToStart(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")
	t.Setenv("APP_PAYPAL_CLIENT_ID", "")
	t.Setenv("APP_PAYPAL_CLIENT_SECRET", "")

	_, err := New()
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestLocation(t *testing.T) {
	c := validConfig()
	c.Billing.TimeZone = "Europe/Berlin"
	require.Equal(t, "Europe/Berlin", c.Location().String())

	var nilCfg *Config
	require.Equal(t, time.UTC, nilCfg.Location())
}
