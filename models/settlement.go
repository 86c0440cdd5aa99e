package models

import "time"

// Cash settlement statuses.
const (
	SettlementPending      = "pending"
	SettlementAcknowledged = "acknowledged"
)

// CashSettlementRecord is produced when a cash subscriber's service date
// could not form a trip. It only ever transitions pending -> acknowledged;
// no wallet transaction is involved, cash riders pay the driver per trip.
type CashSettlementRecord struct {
	ID             string     `bson:"id" json:"id"`
	SubscriptionID string     `bson:"subscription_id" json:"subscription_id"`
	UserID         string     `bson:"user_id" json:"user_id"`
	ServiceDate    string     `bson:"service_date" json:"service_date"` // "YYYY-MM-DD"
	Status         string     `bson:"status" json:"status"`
	AcknowledgedBy string     `bson:"acknowledged_by,omitempty" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `bson:"acknowledged_at,omitempty" json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}
