package types

import "strings"

// ProviderStatus is the provider's subscription status, mirrored verbatim.
// The vocabulary is open: new values may show up at any time.
type ProviderStatus string

const (
	ProviderStatusApprovalPending ProviderStatus = "APPROVAL_PENDING"
	ProviderStatusApproved        ProviderStatus = "APPROVED"
	ProviderStatusActive          ProviderStatus = "ACTIVE"
	ProviderStatusSuspended       ProviderStatus = "SUSPENDED"
	ProviderStatusCancelled       ProviderStatus = "CANCELLED"
	ProviderStatusExpired         ProviderStatus = "EXPIRED"
)

// Lower returns the lower-cased status used by the settings projection.
func (s ProviderStatus) Lower() string {
	return strings.ToLower(string(s))
}

// LocalState is the closed set of states internal logic switches over.
type LocalState string

const (
	LocalStateActive    LocalState = "active"
	LocalStatePastDue   LocalState = "past_due"
	LocalStateCancelled LocalState = "cancelled"
	LocalStateSuspended LocalState = "suspended"
	LocalStateUnknown   LocalState = "unknown"
)

// ToLocalState converts a provider status into a LocalState. An ACTIVE
// subscription with failed charges is past due. Unrecognized values map to
// LocalStateUnknown.
func ToLocalState(s ProviderStatus, failedPaymentCount int) LocalState {
	switch ProviderStatus(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case ProviderStatusActive:
		if failedPaymentCount > 0 {
			return LocalStatePastDue
		}
		return LocalStateActive
	case ProviderStatusSuspended:
		return LocalStateSuspended
	case ProviderStatusCancelled, ProviderStatusExpired:
		return LocalStateCancelled
	default:
		return LocalStateUnknown
	}
}

type PlanType string

const (
	PlanTypeStarter PlanType = "starter"
	PlanTypePro     PlanType = "pro"
)

type PaymentStatus string

const (
	PaymentStatusActive    PaymentStatus = "active"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentStatusFor maps a provider status to the projection's payment status.
func PaymentStatusFor(s ProviderStatus) PaymentStatus {
	switch s {
	case ProviderStatusActive:
		return PaymentStatusActive
	case ProviderStatusSuspended:
		return PaymentStatusFailed
	default:
		return PaymentStatusCancelled
	}
}

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

type SyncOperationType string

const (
	SyncOperationManual  SyncOperationType = "subscription_sync"
	SyncOperationWebhook SyncOperationType = "webhook_sync"
	SyncOperationPoll    SyncOperationType = "poll_sync"
)

type TransactionType string

const (
	TransactionTypeSubscriptionActivation TransactionType = "subscription_activation"
	TransactionTypeSubscriptionRenewal    TransactionType = "subscription_renewal"
	TransactionTypePayment                TransactionType = "payment"
)

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)
