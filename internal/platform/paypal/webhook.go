package paypal

import (
	"encoding/json"
	"fmt"
)

// ParseWebhookEvent decodes a webhook body. Signature verification happens
// upstream and is not done here.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if ev.ID == "" || ev.EventType == "" {
		return nil, fmt.Errorf("webhook event missing id or event_type")
	}
	return &ev, nil
}

// ParseResource decodes the event resource.
func (e *WebhookEvent) ParseResource() (*WebhookResource, error) {
	if e == nil || len(e.Resource) == 0 {
		return nil, fmt.Errorf("webhook event has no resource")
	}
	var r WebhookResource
	if err := json.Unmarshal(e.Resource, &r); err != nil {
		return nil, fmt.Errorf("decode webhook resource: %w", err)
	}
	return &r, nil
}

// SubscriptionID returns the subscription the event is about, if any.
func (e *WebhookEvent) SubscriptionID(r *WebhookResource) string {
	if r == nil {
		return ""
	}
	if e.ResourceType == "sale" || e.EventType == EventPaymentSaleCompleted {
		return r.BillingAgreementID
	}
	return r.ID
}
