package persistence

import (
	"strings"

	"github.com/storemirror/backend/internal/domain/mirror"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns the defaultOrder if the input is empty or invalid.
func ValidateSortOrder(orderDir string, defaultOrder string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	default:
		return defaultOrder
	}
}

// ValidateSortField validates the sort field against a whitelist of allowed fields
// and returns the SQL expression to sort by.
// Returns the defaultField's expression if the input is empty or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultField string) string {
	if expr, ok := allowedFields[strings.TrimSpace(sortField)]; ok {
		return expr
	}
	return allowedFields[defaultField]
}

// OrderSortFields maps sortable order fields to SQL expressions over the "o" alias.
// Totals are stored as decimal strings and sorted numerically.
var OrderSortFields = map[string]string{
	string(mirror.OrderSortByTotal):       "CAST(NULLIF(o.total, '') AS NUMERIC)",
	string(mirror.OrderSortByDateCreated): "o.date_created",
}

// ProductSortFields maps sortable product fields to SQL expressions over the "p" alias.
var ProductSortFields = map[string]string{
	string(mirror.ProductSortByName):  "p.name",
	string(mirror.ProductSortByPrice): "CAST(NULLIF(p.price, '') AS NUMERIC)",
}
