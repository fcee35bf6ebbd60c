package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
)

// AddressModel is the embedded billing/shipping address block of an order
type AddressModel struct {
	FirstName string `gorm:"type:varchar(200)"`
	LastName  string `gorm:"type:varchar(200)"`
	Company   string `gorm:"type:varchar(200)"`
	Address1  string `gorm:"column:address_1;type:varchar(500)"`
	Address2  string `gorm:"column:address_2;type:varchar(500)"`
	City      string `gorm:"type:varchar(200)"`
	State     string `gorm:"type:varchar(100)"`
	Postcode  string `gorm:"type:varchar(50)"`
	Country   string `gorm:"type:varchar(10)"`
	Email     string `gorm:"type:varchar(320)"`
	Phone     string `gorm:"type:varchar(100)"`
}

// OrderModel is the persistence model for a mirrored order
type OrderModel struct {
	BaseModel
	OID          int64           `gorm:"column:oid;not null;uniqueIndex:uq_orders_oid"`
	Number       string          `gorm:"type:varchar(100);not null"`
	OrderKey     string          `gorm:"type:varchar(100)"`
	Status       string          `gorm:"type:varchar(50);not null;index:idx_orders_status"`
	DateCreated  time.Time       `gorm:"not null;index:idx_orders_date_created"`
	Total        string          `gorm:"type:varchar(50);not null"`
	CustomerID   int64           `gorm:"not null;default:0"`
	CustomerNote string          `gorm:"type:text"`
	Billing      AddressModel    `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping     AddressModel    `gorm:"embedded;embeddedPrefix:shipping_"`
	LineItems    []LineItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// LineItemModel is the persistence model for a line item embedded in an order
type LineItemModel struct {
	ID                uuid.UUID     `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID     `gorm:"type:uuid;not null;index:idx_order_line_items_order_id"`
	Position          int           `gorm:"not null"`
	ExternalID        int64         `gorm:"not null"`
	Name              string        `gorm:"type:varchar(500)"`
	ExternalProductID int64         `gorm:"not null"`
	Quantity          int           `gorm:"not null"`
	Total             string        `gorm:"type:varchar(50)"`
	Price             string        `gorm:"type:varchar(50)"`
	ProductID         uuid.UUID     `gorm:"type:uuid;not null;index:idx_order_line_items_product_id"`
	Product           *ProductModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain Order.
// Line item products are populated when they were preloaded.
func (m *OrderModel) ToDomain() (*mirror.Order, error) {
	o := &mirror.Order{
		ID:           m.ID,
		OID:          m.OID,
		Number:       m.Number,
		OrderKey:     m.OrderKey,
		Status:       mirror.OrderStatus(m.Status),
		DateCreated:  m.DateCreated,
		Total:        m.Total,
		CustomerID:   m.CustomerID,
		CustomerNote: m.CustomerNote,
		Billing:      m.Billing.toDomain(),
		Shipping:     m.Shipping.toDomain(),
		LineItems:    make([]mirror.LineItem, 0, len(m.LineItems)),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	for _, item := range m.LineItems {
		li := mirror.LineItem{
			ExternalID:        item.ExternalID,
			Name:              item.Name,
			ExternalProductID: item.ExternalProductID,
			Quantity:          item.Quantity,
			Total:             item.Total,
			Price:             item.Price,
			ProductID:         item.ProductID,
		}
		if item.Product != nil {
			product, err := item.Product.ToDomain()
			if err != nil {
				return nil, fmt.Errorf("order %d line %d: %w", m.OID, item.ExternalID, err)
			}
			li.Product = product
		}
		o.LineItems = append(o.LineItems, li)
	}
	return o, nil
}

// FromDomain populates the persistence model from a domain Order.
// Line items receive fresh ids and their position in the order.
func (m *OrderModel) FromDomain(o *mirror.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.OID = o.OID
	m.Number = o.Number
	m.OrderKey = o.OrderKey
	m.Status = string(o.Status)
	m.DateCreated = o.DateCreated
	m.Total = o.Total
	m.CustomerID = o.CustomerID
	m.CustomerNote = o.CustomerNote
	m.Billing = addressModelFromDomain(o.Billing)
	m.Shipping = addressModelFromDomain(o.Shipping)
	m.LineItems = make([]LineItemModel, 0, len(o.LineItems))
	for i, item := range o.LineItems {
		m.LineItems = append(m.LineItems, LineItemModel{
			ID:                uuid.New(),
			OrderID:           o.ID,
			Position:          i,
			ExternalID:        item.ExternalID,
			Name:              item.Name,
			ExternalProductID: item.ExternalProductID,
			Quantity:          item.Quantity,
			Total:             item.Total,
			Price:             item.Price,
			ProductID:         item.ProductID,
		})
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *mirror.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// SetID assigns the order id and re-parents its line items
func (m *OrderModel) SetID(id uuid.UUID) {
	m.ID = id
	for i := range m.LineItems {
		m.LineItems[i].OrderID = id
	}
}

// UpdateColumns returns the column values that replace an existing row on upsert
func (m *OrderModel) UpdateColumns(updatedAt time.Time) map[string]any {
	cols := map[string]any{
		"number":        m.Number,
		"order_key":     m.OrderKey,
		"status":        m.Status,
		"date_created":  m.DateCreated,
		"total":         m.Total,
		"customer_id":   m.CustomerID,
		"customer_note": m.CustomerNote,
		"updated_at":    updatedAt,
	}
	m.Billing.putColumns(cols, "billing_")
	m.Shipping.putColumns(cols, "shipping_")
	return cols
}

func (a AddressModel) toDomain() mirror.Address {
	return mirror.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}

func (a AddressModel) putColumns(cols map[string]any, prefix string) {
	cols[prefix+"first_name"] = a.FirstName
	cols[prefix+"last_name"] = a.LastName
	cols[prefix+"company"] = a.Company
	cols[prefix+"address_1"] = a.Address1
	cols[prefix+"address_2"] = a.Address2
	cols[prefix+"city"] = a.City
	cols[prefix+"state"] = a.State
	cols[prefix+"postcode"] = a.Postcode
	cols[prefix+"country"] = a.Country
	cols[prefix+"email"] = a.Email
	cols[prefix+"phone"] = a.Phone
}

func addressModelFromDomain(a mirror.Address) AddressModel {
	return AddressModel{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
