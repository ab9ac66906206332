package domain

import "time"

type OrderEventType string

const (
	EventOrderPlaced        OrderEventType = "order.placed"
	EventOrderStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent is recorded when an order is created or moves to a new status.
// ID is unique per event and lets consumers drop redeliveries.
type OrderEvent struct {
	ID             string         `bson:"id" json:"id"`
	Type           OrderEventType `bson:"type" json:"type"`
	OrderID        string         `bson:"order_id" json:"orderId"`
	UserID         string         `bson:"user_id" json:"userId"`
	Status         OrderStatus    `bson:"status" json:"status"`
	PreviousStatus OrderStatus    `bson:"previous_status,omitempty" json:"previousStatus,omitempty"`
	TotalAmount    float64        `bson:"total_amount" json:"totalAmount"`
	OccurredAt     time.Time      `bson:"occurred_at" json:"occurredAt"`
}
