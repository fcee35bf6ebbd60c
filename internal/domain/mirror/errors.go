package mirror

import "errors"

// Remote source errors
var (
	// ErrRemoteUnavailable indicates the remote platform could not be reached or answered with a server error
	ErrRemoteUnavailable = errors.New("mirror: remote platform unavailable")
	// ErrRemoteRequestFailed indicates the remote platform rejected the request
	ErrRemoteRequestFailed = errors.New("mirror: remote request failed")
	// ErrRemoteInvalidResponse indicates the remote payload could not be decoded or failed validation
	ErrRemoteInvalidResponse = errors.New("mirror: invalid remote response")
)

// Sync and cleanup errors
var (
	// ErrOrderBatchFetch indicates the order batch for a sync run could not be fetched
	ErrOrderBatchFetch = errors.New("mirror: order batch fetch failed")
	// ErrProductResolution indicates a line item's product could not be resolved to a local product
	ErrProductResolution = errors.New("mirror: product resolution failed")
	// ErrRetentionInconsistency indicates orders were deleted but orphaned products were not
	ErrRetentionInconsistency = errors.New("mirror: orphaned products left after order deletion")
	// ErrDanglingProductReference indicates an order was about to be written with an unresolved line item
	ErrDanglingProductReference = errors.New("mirror: line item has no resolved product")
)

// Store errors
var (
	// ErrOrderNotFound indicates the order does not exist in the mirror
	ErrOrderNotFound = errors.New("mirror: order not found")
	// ErrProductNotFound indicates the product does not exist in the mirror
	ErrProductNotFound = errors.New("mirror: product not found")
	// ErrDuplicateProduct indicates a product with the same external id already exists
	ErrDuplicateProduct = errors.New("mirror: product already exists")
)
