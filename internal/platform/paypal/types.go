package paypal

import (
	"encoding/json"
	"time"

	"github.com/fatflowers/subsync/pkg/types"
	"github.com/shopspring/decimal"
)

// Subscription is the subset of the provider subscription resource the sync
// consumes. Raw keeps the full payload as received.
type Subscription struct {
	ID               string               `json:"id"`
	Status           types.ProviderStatus `json:"status"`
	StatusUpdateTime *time.Time           `json:"status_update_time,omitempty"`
	StatusChangeNote string               `json:"status_change_note,omitempty"`
	PlanID           string               `json:"plan_id"`
	StartTime        *time.Time           `json:"start_time,omitempty"`
	BillingInfo      *BillingInfo         `json:"billing_info,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type BillingInfo struct {
	NextBillingTime     *time.Time       `json:"next_billing_time,omitempty"`
	FailedPaymentsCount *int             `json:"failed_payments_count,omitempty"`
	LastPayment         *LastPayment     `json:"last_payment,omitempty"`
	OutstandingBalance  *Money           `json:"outstanding_balance,omitempty"`
	CycleExecutions     []CycleExecution `json:"cycle_executions,omitempty"`
}

type LastPayment struct {
	Amount *Money     `json:"amount,omitempty"`
	Time   *time.Time `json:"time,omitempty"`
}

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

// Decimal parses Value. Malformed or empty values yield ok=false.
func (m *Money) Decimal() (decimal.Decimal, bool) {
	if m == nil || m.Value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

type CycleExecution struct {
	TenureType      string `json:"tenure_type"`
	Sequence        int    `json:"sequence"`
	CyclesCompleted int    `json:"cycles_completed"`
	CyclesRemaining int    `json:"cycles_remaining"`
	TotalCycles     int    `json:"total_cycles"`
}

// CyclesCompleted sums completed cycles across all tenures.
func (b *BillingInfo) CyclesCompleted() int {
	if b == nil {
		return 0
	}
	total := 0
	for _, c := range b.CycleExecutions {
		total += c.CyclesCompleted
	}
	return total
}

// WebhookEvent is the envelope of a provider webhook notification.
type WebhookEvent struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Summary      string          `json:"summary"`
	CreateTime   *time.Time      `json:"create_time,omitempty"`
	Resource     json.RawMessage `json:"resource"`
}

// WebhookResource holds the resource fields webhook handling needs. For
// subscription events ID is the subscription id; for sale events ID is the
// sale id and BillingAgreementID the subscription id.
type WebhookResource struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	CustomID           string     `json:"custom_id"`
	BillingAgreementID string     `json:"billing_agreement_id"`
	Amount             *SaleMoney `json:"amount,omitempty"`
	CreateTime         *time.Time `json:"create_time,omitempty"`
}

type SaleMoney struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

const (
	EventSubscriptionCreated       = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionActivated     = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionUpdated       = "BILLING.SUBSCRIPTION.UPDATED"
	EventSubscriptionSuspended     = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventSubscriptionCancelled     = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionExpired       = "BILLING.SUBSCRIPTION.EXPIRED"
	EventSubscriptionPaymentFailed = "BILLING.SUBSCRIPTION.PAYMENT.FAILED"
	EventPaymentSaleCompleted      = "PAYMENT.SALE.COMPLETED"
)
