package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/clearcart/ordersearch/internal/domain/order"
)

// Document is the denormalized, flattened projection of one order held in
// the search index. It is rebuilt whole whenever the source order changes.
type Document struct {
	ID                string                  `json:"id"`
	OrderNumber       string                  `json:"order_number"`
	CustomerName      string                  `json:"customer_name"`
	CustomerEmail     string                  `json:"customer_email"`
	Status            order.Status            `json:"status"`
	PaymentStatus     order.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus order.FulfillmentStatus `json:"fulfillment_status"`
	TotalAmount       float64                 `json:"total_amount"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	ShippingAddress   order.Address           `json:"shipping_address"`
	BillingAddress    order.Address           `json:"billing_address"`
	Notes             string                  `json:"notes,omitempty"`
	SearchableText    string                  `json:"searchable_text"`
}

// FromOrder flattens a raw order into an indexable document. Customer name
// and email come from the shipping address, falling back to billing.
func FromOrder(o order.Order) Document {
	name := o.ShippingAddress.Name
	email := o.ShippingAddress.Email
	if name == "" {
		name = o.BillingAddress.Name
	}
	if email == "" {
		email = o.BillingAddress.Email
	}

	doc := Document{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerName:      name,
		CustomerEmail:     email,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		TotalAmount:       o.TotalAmount,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		ShippingAddress:   o.ShippingAddress,
		BillingAddress:    o.BillingAddress,
		Notes:             o.Notes,
	}
	doc.SearchableText = BuildSearchableText(doc)
	return doc
}

// BuildSearchableText derives the lower-cased concatenation used for fast
// substring scans. It is a pure function of the other document fields; the
// index recomputes it on every upsert and never patches it in place.
func BuildSearchableText(d Document) string {
	parts := []string{
		d.OrderNumber,
		d.CustomerName,
		d.CustomerEmail,
		string(d.Status),
		string(d.PaymentStatus),
		string(d.FulfillmentStatus),
		strconv.FormatFloat(d.TotalAmount, 'f', -1, 64),
		addressText(d.ShippingAddress),
		addressText(d.BillingAddress),
		d.Notes,
	}
	joined := strings.Join(parts, " ")
	return strings.ToLower(strings.Join(strings.Fields(joined), " "))
}

func addressText(a order.Address) string {
	fields := []string{a.Name, a.Email, a.Phone, a.Street, a.City, a.State, a.PostalCode, a.Country}
	nonEmpty := fields[:0]
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " ")
}
