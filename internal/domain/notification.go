package domain

import "time"

type NotificationKind string

const (
	NotificationOrderPlaced   NotificationKind = "order_placed"
	NotificationStatusChanged NotificationKind = "order_status_changed"
)

type Notification struct {
	ID        string           `bson:"_id" json:"id"`
	UserID    string           `bson:"user_id" json:"userId"`
	OrderID   string           `bson:"order_id" json:"orderId"`
	EventID   string           `bson:"event_id" json:"-"`
	Kind      NotificationKind `bson:"kind" json:"kind"`
	Message   string           `bson:"message" json:"message"`
	Read      bool             `bson:"read" json:"read"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}
