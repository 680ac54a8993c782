package order

import "time"

// Status is the order lifecycle status.
type Status string

// Order status values.
const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusRefunded   Status = "REFUNDED"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

// Payment status values.
const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentAuthorized        PaymentStatus = "AUTHORIZED"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// FulfillmentStatus is the fulfillment state of an order.
type FulfillmentStatus string

// Fulfillment status values.
const (
	FulfillmentUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentPartial     FulfillmentStatus = "PARTIAL"
	FulfillmentFulfilled   FulfillmentStatus = "FULFILLED"
	FulfillmentReturned    FulfillmentStatus = "RETURNED"
)

// Address is a nested postal address block attached to an order.
type Address struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// IsZero reports whether the address has no content.
func (a Address) IsZero() bool { return a == Address{} }

// Order is the raw source-of-truth record as supplied by the order store.
type Order struct {
	ID                string            `json:"id"`
	OrderNumber       string            `json:"order_number"`
	Status            Status            `json:"status"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	TotalAmount       float64           `json:"total_amount"`
	ShippingAddress   Address           `json:"shipping_address"`
	BillingAddress    Address           `json:"billing_address"`
	Notes             string            `json:"notes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
