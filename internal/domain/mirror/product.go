package mirror

import (
	"time"

	"github.com/google/uuid"
)

// Image is a product image as exposed to the UI
type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

// Product is a mirrored remote product.
// A product is written once, when an order first references it, and is not
// refreshed by later syncs.
type Product struct {
	// ID is the local identifier referenced by line items
	ID uuid.UUID
	// ExternalID is the product id on the remote platform (unique)
	ExternalID int64
	Name       string
	Slug       string
	SKU        string
	// Price is kept as the decimal string the remote platform reported
	Price     string
	Images    []Image
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductSummary is a product annotated with the number of orders referencing it
type ProductSummary struct {
	Product
	OrderCount int64
}

// RemoteProduct is a product as read from the remote platform,
// already translated and validated by the RemoteSource adapter.
type RemoteProduct struct {
	ID     int64
	Name   string
	Slug   string
	SKU    string
	Price  string
	Images []Image
}

// NewProductFromRemote maps a remote product to a new local product
func NewProductFromRemote(rp *RemoteProduct) *Product {
	images := make([]Image, 0, len(rp.Images))
	for _, img := range rp.Images {
		images = append(images, Image{
			ID:   img.ID,
			Src:  img.Src,
			Name: img.Name,
			Alt:  img.Alt,
		})
	}
	return &Product{
		ID:         uuid.New(),
		ExternalID: rp.ID,
		Name:       rp.Name,
		Slug:       rp.Slug,
		SKU:        rp.SKU,
		Price:      rp.Price,
		Images:     images,
	}
}
