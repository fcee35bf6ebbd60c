package mirror

import (
	"context"
	"time"
)

// RejectedOrder is a remote order that failed validation at the adapter boundary.
// It is reported next to the valid orders of the same batch and never written.
type RejectedOrder struct {
	OID    int64
	Number string
	// ProductID is the offending line item product id, zero when the order itself is malformed
	ProductID int64
	Reason    string
}

// OrderBatch is the result of one FetchOrders call
type OrderBatch struct {
	Orders   []RemoteOrder
	Rejected []RejectedOrder
}

// Len returns the number of orders the remote returned, valid or not
func (b *OrderBatch) Len() int {
	return len(b.Orders) + len(b.Rejected)
}

// RemoteSource is the port for reading orders and products from the remote platform.
// Implementations translate the platform payloads into RemoteOrder / RemoteProduct and
// report failures wrapping ErrRemoteUnavailable, ErrRemoteRequestFailed or ErrRemoteInvalidResponse.
type RemoteSource interface {
	// FetchOrders returns the orders created after since. A malformed order is
	// reported in OrderBatch.Rejected; only transport, status and page decode
	// failures are returned as an error.
	FetchOrders(ctx context.Context, since time.Time) (*OrderBatch, error)
	// FetchProductByID returns a single product by its remote id
	FetchProductByID(ctx context.Context, id int64) (*RemoteProduct, error)
}
