package field

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/clearcart/ordersearch/internal/domain"
	"github.com/clearcart/ordersearch/internal/domain/document"
	"github.com/clearcart/ordersearch/internal/domain/order"
)

// Type classifies a field for operator compatibility checks.
type Type string

// Field type values.
const (
	String  Type = "string"
	Enum    Type = "enum"
	Numeric Type = "numeric"
	Date    Type = "date"
	// Nested covers the address blobs and the sub-paths derived from them
	// (customer name/email). Only contains-style matching applies.
	Nested Type = "nested"
)

// Field identifies one logical, queryable attribute of an order document.
// The set is closed: anything outside it fails with ErrUnsupportedField.
type Field string

// Queryable fields.
const (
	OrderNumber       Field = "orderNumber"
	CustomerName      Field = "customerName"
	CustomerEmail     Field = "customerEmail"
	Status            Field = "status"
	PaymentStatus     Field = "paymentStatus"
	FulfillmentStatus Field = "fulfillmentStatus"
	TotalAmount       Field = "totalAmount"
	CreatedAt         Field = "createdAt"
	UpdatedAt         Field = "updatedAt"
	ShippingAddress   Field = "shippingAddress"
	BillingAddress    Field = "billingAddress"
	Notes             Field = "notes"
)

var fieldTypes = map[Field]Type{
	OrderNumber:       String,
	CustomerName:      Nested,
	CustomerEmail:     Nested,
	Status:            Enum,
	PaymentStatus:     Enum,
	FulfillmentStatus: Enum,
	TotalAmount:       Numeric,
	CreatedAt:         Date,
	UpdatedAt:         Date,
	ShippingAddress:   Nested,
	BillingAddress:    Nested,
	Notes:             String,
}

// All returns every queryable field in a stable order.
func All() []Field {
	return []Field{
		OrderNumber, CustomerName, CustomerEmail,
		Status, PaymentStatus, FulfillmentStatus,
		TotalAmount, CreatedAt, UpdatedAt,
		ShippingAddress, BillingAddress, Notes,
	}
}

// TypeOf returns the field's type, or ErrUnsupportedField.
func TypeOf(f Field) (Type, error) {
	t, ok := fieldTypes[f]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedField, f)
	}
	return t, nil
}

// IsValid reports whether f is in the queryable field set.
func IsValid(f Field) bool {
	_, ok := fieldTypes[f]
	return ok
}

// Value extracts the typed value for a field from a document: float64 for
// numeric fields, time.Time for date fields, string otherwise. Nested
// address fields resolve to the implied sub-path (customer name/email) or
// to a serialized form of the whole address for generic contains checks.
func Value(d document.Document, f Field) (any, error) {
	switch f {
	case OrderNumber:
		return d.OrderNumber, nil
	case CustomerName:
		return d.CustomerName, nil
	case CustomerEmail:
		return d.CustomerEmail, nil
	case Status:
		return string(d.Status), nil
	case PaymentStatus:
		return string(d.PaymentStatus), nil
	case FulfillmentStatus:
		return string(d.FulfillmentStatus), nil
	case TotalAmount:
		return d.TotalAmount, nil
	case CreatedAt:
		return d.CreatedAt, nil
	case UpdatedAt:
		return d.UpdatedAt, nil
	case ShippingAddress:
		return serializeAddress(d.ShippingAddress), nil
	case BillingAddress:
		return serializeAddress(d.BillingAddress), nil
	case Notes:
		return d.Notes, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedField, f)
}

// Text extracts the field value rendered as a string, for substring and
// fuzzy comparisons. Case folding is left to the comparison layer.
func Text(d document.Document, f Field) (string, error) {
	v, err := Value(d, f)
	if err != nil {
		return "", err
	}
	switch tv := v.(type) {
	case string:
		return tv, nil
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), nil
	case time.Time:
		return tv.Format(time.RFC3339), nil
	}
	return fmt.Sprintf("%v", v), nil
}

func serializeAddress(a order.Address) string {
	if a.IsZero() {
		return ""
	}
	b, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return string(b)
}
