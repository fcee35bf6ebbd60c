package woocommerce

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storemirror/backend/internal/domain/mirror"
)

// toRemoteOrder validates a WooCommerce order and converts it to a mirror.RemoteOrder.
// A malformed order yields a rejection instead, so the rest of the page stays usable.
func toRemoteOrder(o *wooOrder) (*mirror.RemoteOrder, *mirror.RejectedOrder) {
	if o.ID <= 0 {
		return nil, rejectOrder(o, 0, "order id %d", o.ID)
	}
	created, err := time.ParseInLocation(dateLayout, o.DateCreatedGMT, time.UTC)
	if err != nil {
		return nil, rejectOrder(o, 0, "date_created_gmt %q", o.DateCreatedGMT)
	}
	if err := checkDecimal(string(o.Total), false); err != nil {
		return nil, rejectOrder(o, 0, "total: %v", err)
	}

	items := make([]mirror.RemoteLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if li.ProductID <= 0 {
			return nil, rejectOrder(o, li.ProductID, "line %d has product_id %d", li.ID, li.ProductID)
		}
		if err := checkDecimal(string(li.Total), true); err != nil {
			return nil, rejectOrder(o, li.ProductID, "line %d total: %v", li.ID, err)
		}
		if err := checkDecimal(string(li.Price), true); err != nil {
			return nil, rejectOrder(o, li.ProductID, "line %d price: %v", li.ID, err)
		}
		items = append(items, mirror.RemoteLineItem{
			ID:        li.ID,
			Name:      li.Name,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Total:     string(li.Total),
			Price:     string(li.Price),
		})
	}

	return &mirror.RemoteOrder{
		ID:           o.ID,
		Number:       o.Number,
		OrderKey:     o.OrderKey,
		Status:       o.Status,
		DateCreated:  created,
		Total:        string(o.Total),
		CustomerID:   o.CustomerID,
		CustomerNote: o.CustomerNote,
		Billing:      o.Billing.toDomain(),
		Shipping:     o.Shipping.toDomain(),
		LineItems:    items,
	}, nil
}

func rejectOrder(o *wooOrder, productID int64, format string, args ...any) *mirror.RejectedOrder {
	return &mirror.RejectedOrder{
		OID:       o.ID,
		Number:    o.Number,
		ProductID: productID,
		Reason:    fmt.Sprintf("%v: %s", mirror.ErrRemoteInvalidResponse, fmt.Sprintf(format, args...)),
	}
}

// toRemoteProduct validates a WooCommerce product and converts it to a mirror.RemoteProduct
func toRemoteProduct(p *wooProduct) (*mirror.RemoteProduct, error) {
	if p.ID <= 0 {
		return nil, fmt.Errorf("%w: product id %d", mirror.ErrRemoteInvalidResponse, p.ID)
	}
	// variable and unpublished products report an empty price
	if err := checkDecimal(string(p.Price), true); err != nil {
		return nil, fmt.Errorf("%w: product %d price: %v", mirror.ErrRemoteInvalidResponse, p.ID, err)
	}

	images := make([]mirror.Image, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, mirror.Image{ID: img.ID, Src: img.Src, Name: img.Name, Alt: img.Alt})
	}
	return &mirror.RemoteProduct{
		ID:     p.ID,
		Name:   p.Name,
		Slug:   p.Slug,
		SKU:    p.SKU,
		Price:  string(p.Price),
		Images: images,
	}, nil
}

func (a wooAddress) toDomain() mirror.Address {
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

var errEmptyDecimal = errors.New("empty decimal")

func checkDecimal(s string, allowEmpty bool) error {
	if s == "" {
		if allowEmpty {
			return nil
		}
		return errEmptyDecimal
	}
	_, err := decimal.NewFromString(s)
	return err
}
