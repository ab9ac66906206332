package domain

import "time"

type Wishlist struct {
	UserID     string    `bson:"user_id" json:"user_id"`
	ProductIDs []string  `bson:"product_ids" json:"product_ids"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

func (w *Wishlist) Contains(productID string) bool {
	if w == nil {
		return false
	}
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}
