package domain

import "time"

type Product struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}
