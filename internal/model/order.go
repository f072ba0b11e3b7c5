package model

import "time"

// Payment methods. Coin orders are debited from User.Coins at checkout.
const (
	PaymentCash  = "cash"
	PaymentCoins = "coins"
)

// Order states. Only admins move an order past pending.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderFinal reports whether an order in status can no longer change.
func OrderFinal(status string) bool {
	return status == OrderDelivered || status == OrderCancelled
}

// Order is a goodie purchase. Item prices are captured at checkout time.
type Order struct {
	ID              string      `json:"id"`
	OrderID         string      `json:"orderId"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	PaymentMethod   string      `json:"paymentMethod"`
	TotalPrice      int64       `json:"totalPrice"`
	TotalCoinPrice  int         `json:"totalCoinPrice"`
	ShippingAddress string      `json:"shippingAddress"`
	Status          string      `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	GoodieID  string `json:"goodie"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	CoinPrice int    `json:"coinPrice"`
}
