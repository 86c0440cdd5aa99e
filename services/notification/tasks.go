package notification

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task types handled by the notification worker.
const (
	TypeSubscriptionEvent = "notify:subscription"
	TypeInvoiceEvent      = "notify:invoice"
)

// Subscription event names.
const (
	EventPurchased = "purchased"
	EventCancelled = "cancelled"
)

// SubscriptionEventPayload is the queue payload for purchase/cancel events.
type SubscriptionEventPayload struct {
	Event          string `json:"event"`
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
	RouteID        string `json:"routeId"`
	Amount         string `json:"amount,omitempty"` // monthly price or refund, as decimal string
}

// InvoiceEventPayload is the queue payload for invoice lifecycle events.
type InvoiceEventPayload struct {
	Event          string `json:"event"` // mirrors the invoice status
	InvoiceID      string `json:"invoiceId"`
	InvoiceNumber  string `json:"invoiceNumber"`
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
	AmountDue      string `json:"amountDue"`
}

// NewSubscriptionEventTask builds an asynq task for a subscription event.
func NewSubscriptionEventTask(payload SubscriptionEventPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSubscriptionEvent, b), nil
}

// NewInvoiceEventTask builds an asynq task for an invoice event.
func NewInvoiceEventTask(payload InvoiceEventPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInvoiceEvent, b), nil
}
