package woocommerce

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// dateLayout is the layout of the *_gmt timestamps, which carry no zone
const dateLayout = "2006-01-02T15:04:05"

// flexDecimal accepts a decimal sent either as a JSON string or a JSON number.
// Line item prices are numbers while totals are strings.
type flexDecimal string

// UnmarshalJSON implements json.Unmarshaler
func (d *flexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = flexDecimal(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("woocommerce: decimal must be a string or number: %w", err)
	}
	*d = flexDecimal(n.String())
	return nil
}

// wooAddress is a billing or shipping block
type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// wooLineItem is an order line item
type wooLineItem struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Total     flexDecimal `json:"total"`
	Price     flexDecimal `json:"price"`
}

// wooOrder is an order as returned by GET /orders
type wooOrder struct {
	ID             int64         `json:"id"`
	Number         string        `json:"number"`
	OrderKey       string        `json:"order_key"`
	Status         string        `json:"status"`
	DateCreatedGMT string        `json:"date_created_gmt"`
	Total          flexDecimal   `json:"total"`
	CustomerID     int64         `json:"customer_id"`
	CustomerNote   string        `json:"customer_note"`
	Billing        wooAddress    `json:"billing"`
	Shipping       wooAddress    `json:"shipping"`
	LineItems      []wooLineItem `json:"line_items"`
}

// wooImage is a product image
type wooImage struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// wooProduct is a product as returned by GET /products/{id}
type wooProduct struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Slug   string      `json:"slug"`
	SKU    string      `json:"sku"`
	Price  flexDecimal `json:"price"`
	Images []wooImage  `json:"images"`
}
