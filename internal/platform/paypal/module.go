package paypal

import (
	"go.uber.org/fx"

	"github.com/fatflowers/subsync/pkg/config"
)

// NewFromConfig builds the client from the paypal config section.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	return NewClient(Options{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Timeout:      cfg.PayPal.Timeout,
	})
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)
