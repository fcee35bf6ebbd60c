// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and the model registry
// - product.go: products table
// - order.go: orders and order_line_items tables
package models
