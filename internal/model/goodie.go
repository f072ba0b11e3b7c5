package model

import "time"

// Goodie is a merchandise item that can be bought with cash or coins.
// Price is in the smallest currency unit.
type Goodie struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	CoinPrice   int       `json:"coinPrice"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	IsPopular   bool      `json:"isPopular"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
