package domain

import "time"

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderCompleted  OrderStatus = "completed"
	OrderProcessing OrderStatus = "processing"
	OrderFailed     OrderStatus = "failed"
)

// Order is an immutable purchase record. Orders are only created when a
// payment session resolves with a detected transaction.
type Order struct {
	ID            string      `json:"id" db:"id"`
	UserID        int64       `json:"user_id" db:"user_id"`
	Product       string      `json:"product" db:"product"`
	Amount        float64     `json:"amount" db:"amount"`
	Status        OrderStatus `json:"status" db:"status"`
	TransactionID string      `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}
