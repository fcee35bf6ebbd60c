package mirror

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the order status reported by the remote platform.
// The set is open: unknown statuses are stored as-is.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// Address is a billing or shipping address block.
// Email and Phone are normally only present on billing addresses.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is a line of an order. It has no identity outside its order.
type LineItem struct {
	// ExternalID is the line id on the remote platform
	ExternalID int64
	// Name is the product name as it was on the order
	Name string
	// ExternalProductID is the remote product id the line refers to
	ExternalProductID int64
	Quantity          int
	Total             string
	Price             string
	// ProductID references the resolved local product
	ProductID uuid.UUID
	// Product is populated by read queries only
	Product *Product
}

// Order is a mirrored remote order
type Order struct {
	ID uuid.UUID
	// OID is the order id on the remote platform (unique, reconciliation key)
	OID          int64
	Number       string
	OrderKey     string
	Status       OrderStatus
	DateCreated  time.Time
	Total        string
	CustomerID   int64
	CustomerNote string
	Billing      Address
	Shipping     Address
	LineItems    []LineItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks that the order can be written to the mirror.
// Every line item must reference a resolved local product.
func (o *Order) Validate() error {
	if o.OID <= 0 {
		return fmt.Errorf("mirror: invalid order id %d", o.OID)
	}
	for i, item := range o.LineItems {
		if item.ProductID == uuid.Nil {
			return fmt.Errorf("%w: order %d line %d (product %d)",
				ErrDanglingProductReference, o.OID, i, item.ExternalProductID)
		}
	}
	return nil
}

// ProductIDs returns the distinct local product ids referenced by the order
func (o *Order) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.LineItems))
	ids := make([]uuid.UUID, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// RemoteLineItem is a line item as read from the remote platform
type RemoteLineItem struct {
	ID        int64
	Name      string
	ProductID int64
	Quantity  int
	Total     string
	Price     string
}

// RemoteOrder is an order as read from the remote platform,
// already translated and validated by the RemoteSource adapter.
type RemoteOrder struct {
	ID           int64
	Number       string
	OrderKey     string
	Status       string
	DateCreated  time.Time
	Total        string
	CustomerID   int64
	CustomerNote string
	Billing      Address
	Shipping     Address
	LineItems    []RemoteLineItem
}

// NewOrderFromRemote builds the canonical order for a remote order.
// productIDs maps each line item's remote product id to its resolved local id;
// the caller must have resolved every line item first.
func NewOrderFromRemote(ro *RemoteOrder, productIDs map[int64]uuid.UUID) *Order {
	items := make([]LineItem, 0, len(ro.LineItems))
	for _, li := range ro.LineItems {
		items = append(items, LineItem{
			ExternalID:        li.ID,
			Name:              li.Name,
			ExternalProductID: li.ProductID,
			Quantity:          li.Quantity,
			Total:             li.Total,
			Price:             li.Price,
			ProductID:         productIDs[li.ProductID],
		})
	}
	return &Order{
		ID:           uuid.New(),
		OID:          ro.ID,
		Number:       ro.Number,
		OrderKey:     ro.OrderKey,
		Status:       OrderStatus(ro.Status),
		DateCreated:  ro.DateCreated,
		Total:        ro.Total,
		CustomerID:   ro.CustomerID,
		CustomerNote: ro.CustomerNote,
		Billing:      ro.Billing,
		Shipping:     ro.Shipping,
		LineItems:    items,
	}
}
