package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const PaymentCashOnDelivery = "cash"

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

type ShippingAddress struct {
	FullName string `bson:"full_name" json:"fullName"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	Phone    string `bson:"phone" json:"phone"`
}

// Validate requires every field and a 10 to 15 digit phone number.
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.FullName) == "" ||
		strings.TrimSpace(a.Address) == "" ||
		strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("%w: all shipping fields are required", ErrInvalidShippingInfo)
	}
	if !phonePattern.MatchString(a.Phone) {
		return fmt.Errorf("%w: phone must be 10 to 15 digits", ErrInvalidShippingInfo)
	}
	return nil
}

// OrderItem freezes name and price at order creation.
type OrderItem struct {
	ProductID   string  `bson:"product_id" json:"product"`
	ProductName string  `bson:"product_name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
}

type StatusChange struct {
	From      OrderStatus `bson:"from" json:"from"`
	To        OrderStatus `bson:"to" json:"to"`
	ChangedBy string      `bson:"changed_by" json:"changedBy"`
	ChangedAt time.Time   `bson:"changed_at" json:"changedAt"`
}

type Order struct {
	ID              string          `bson:"_id"`
	UserID          string          `bson:"user_id"`
	CartKey         string          `bson:"cart_key"`
	Items           []OrderItem     `bson:"items"`
	ShippingAddress ShippingAddress `bson:"shipping_address"`
	PaymentMethod   string          `bson:"payment_method"`
	Subtotal        float64         `bson:"subtotal"`
	ShippingFee     float64         `bson:"shipping_fee"`
	Tax             float64         `bson:"tax"`
	TotalAmount     float64         `bson:"total_amount"`
	Status          OrderStatus     `bson:"status"`
	StatusHistory   []StatusChange  `bson:"status_history"`
	CreatedAt       time.Time       `bson:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at"`
}

func (o *Order) OwnedBy(userID string) bool {
	return o != nil && o.UserID == userID
}

// CartKey derives a stable key for a cart snapshot. Two checkouts of the same
// cart state produce the same key, which the order store keeps unique.
func CartKey(cart *Cart) string {
	items := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, fmt.Sprintf("%s:%d", item.ProductID, item.Quantity))
	}
	sort.Strings(items)

	h := sha256.New()
	h.Write([]byte(cart.UserID))
	h.Write([]byte{0})
	h.Write([]byte(cart.UpdatedAt.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(items, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
