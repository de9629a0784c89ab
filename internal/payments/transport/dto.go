package transport

import (
	"time"

	"github.com/google/uuid"
)

// PaymentResponse represents one payment in API responses.
type PaymentResponse struct {
	ID               uuid.UUID  `json:"id"`
	StripePaymentID  *string    `json:"stripePaymentId,omitempty"`
	StripeCustomerID *string    `json:"stripeCustomerId,omitempty"`
	ClientID         *uuid.UUID `json:"clientId,omitempty"`
	AmountCents      int64      `json:"amountCents"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	SubscriptionID   *string    `json:"subscriptionId,omitempty"`
	PaidAt           time.Time  `json:"paidAt"`
}

// PaymentHistoryResponse is the payment history across one merged identity.
type PaymentHistoryResponse struct {
	Payments             []PaymentResponse `json:"payments"`
	TotalAmountPaidCents int64             `json:"totalAmountPaidCents"`
}

// SyncTriggeredResponse acknowledges an enqueued sync run.
type SyncTriggeredResponse struct {
	Enqueued bool `json:"enqueued"`
}

// SyncStats summarizes one completed sync run.
type SyncStats struct {
	ChargesSeen      int `json:"chargesSeen"`
	PaymentsUpserted int `json:"paymentsUpserted"`
	ClientsLinked    int `json:"clientsLinked"`
}
