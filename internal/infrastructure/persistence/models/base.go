package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AllModels returns every model of the mirror schema, in dependency order.
// Used by AutoMigrate in tests and local development.
func AllModels() []any {
	return []any{
		&ProductModel{},
		&OrderModel{},
		&LineItemModel{},
	}
}
