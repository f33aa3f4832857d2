package payment

import "time"

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

// Currency of every amount in the system. Amounts are whole rupees.
const Currency = "INR"

// Payment binds an order to a checkout at an external provider. The
// provider id is the handle the capture step comes back with.
type Payment struct {
	ID         string    `json:"id" db:"payment_id"`
	OrderID    string    `json:"orderId" db:"order_id"`
	Provider   string    `json:"provider" db:"provider"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	ReceiptID  string    `json:"receiptId" db:"receipt_id"`
	Amount     int       `json:"amount" db:"amount"`
	Currency   string    `json:"currency" db:"currency"`
	Status     Status    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type StatusUp struct {
	ID        string    `db:"payment_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}
