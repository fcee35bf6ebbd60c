package models

import (
	"encoding/json"
	"fmt"

	"github.com/storemirror/backend/internal/domain/mirror"
)

// ProductModel is the persistence model for a mirrored product
type ProductModel struct {
	BaseModel
	ExternalID int64  `gorm:"column:external_id;not null;uniqueIndex:uq_products_external_id"`
	Name       string `gorm:"type:varchar(500);not null"`
	Slug       string `gorm:"type:varchar(500)"`
	SKU        string `gorm:"column:sku;type:varchar(200)"`
	Price      string `gorm:"type:varchar(50);not null"`
	ImagesJSON string `gorm:"column:images;type:jsonb;default:'[]'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
// An unreadable images column is returned as an error.
func (m *ProductModel) ToDomain() (*mirror.Product, error) {
	p := &mirror.Product{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Name:       m.Name,
		Slug:       m.Slug,
		SKU:        m.SKU,
		Price:      m.Price,
		Images:     make([]mirror.Image, 0),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}

	if m.ImagesJSON != "" && m.ImagesJSON != "[]" {
		var images []mirror.Image
		if err := json.Unmarshal([]byte(m.ImagesJSON), &images); err != nil {
			return nil, fmt.Errorf("product %d has malformed images: %w", m.ExternalID, err)
		}
		p.Images = images
	}

	return p, nil
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *mirror.Product) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.ExternalID = p.ExternalID
	m.Name = p.Name
	m.Slug = p.Slug
	m.SKU = p.SKU
	m.Price = p.Price

	images := p.Images
	if images == nil {
		images = []mirror.Image{}
	}
	if jsonBytes, err := json.Marshal(images); err == nil {
		m.ImagesJSON = string(jsonBytes)
	} else {
		m.ImagesJSON = "[]"
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *mirror.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
