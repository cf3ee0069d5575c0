package notification_handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/subsync/internal/models"
	"github.com/fatflowers/subsync/internal/platform/paypal"
	"github.com/fatflowers/subsync/pkg/types"
)

// ErrInvalidNotification marks webhook bodies that cannot be parsed.
var ErrInvalidNotification = errors.New("invalid notification")

type PayPalNotificationParser struct {
	ReceivedAt time.Time
	Event      *paypal.WebhookEvent
	Resource   *paypal.WebhookResource
}

func GetPayPalNotificationParser(body []byte, receivedAt time.Time) (*PayPalNotificationParser, error) {
	ev, err := paypal.ParseWebhookEvent(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	res, err := ev.ParseResource()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	return &PayPalNotificationParser{ReceivedAt: receivedAt, Event: ev, Resource: res}, nil
}

func (p *PayPalNotificationParser) GetEventID(context.Context) string {
	return p.Event.ID
}

func (p *PayPalNotificationParser) GetEventType(context.Context) string {
	return p.Event.EventType
}

func (p *PayPalNotificationParser) GetNotificationTime(context.Context) time.Time {
	if p.Event.CreateTime != nil {
		return *p.Event.CreateTime
	}
	return p.ReceivedAt
}

func (p *PayPalNotificationParser) GetSubscriptionID(context.Context) string {
	return p.Event.SubscriptionID(p.Resource)
}

func (p *PayPalNotificationParser) GetUserID(context.Context) (string, error) {
	if p.Resource.CustomID == "" {
		return "", fmt.Errorf("custom_id is empty")
	}
	return p.Resource.CustomID, nil
}

func (p *PayPalNotificationParser) TriggersSync(ctx context.Context) bool {
	t := p.Event.EventType
	return (strings.HasPrefix(t, "BILLING.SUBSCRIPTION.") || strings.HasPrefix(t, "PAYMENT.SALE.")) &&
		p.GetSubscriptionID(ctx) != ""
}

func (p *PayPalNotificationParser) GetTransaction(ctx context.Context) (*models.PaymentTransaction, error) {
	var (
		txType  types.TransactionType
		txState types.TransactionStatus
		txID    string
	)
	switch p.Event.EventType {
	case paypal.EventPaymentSaleCompleted:
		txType, txState, txID = types.TransactionTypeSubscriptionRenewal, types.TransactionStatusCompleted, p.Resource.ID
	case paypal.EventSubscriptionActivated:
		txType, txState, txID = types.TransactionTypeSubscriptionActivation, types.TransactionStatusCompleted, p.Event.ID
	case paypal.EventSubscriptionPaymentFailed:
		txType, txState, txID = types.TransactionTypePayment, types.TransactionStatusFailed, p.Event.ID
	default:
		return nil, nil
	}

	amount := decimal.Zero
	currency := ""
	if m := p.Resource.Amount; m != nil {
		d, err := decimal.NewFromString(m.Total)
		if err != nil {
			return nil, fmt.Errorf("%w: amount %q: %v", ErrInvalidNotification, m.Total, err)
		}
		amount, currency = d, m.Currency
	}

	return &models.PaymentTransaction{
		ProviderSubscriptionID: p.GetSubscriptionID(ctx),
		ProviderTransactionID:  txID,
		TransactionType:        txType,
		Amount:                 amount,
		Currency:               currency,
		Status:                 txState,
		Metadata: datatypes.JSONMap{
			"event_id":   p.Event.ID,
			"event_type": p.Event.EventType,
			"summary":    p.Event.Summary,
		},
	}, nil
}

func (p *PayPalNotificationParser) GetData(context.Context) any {
	return p.Event
}
