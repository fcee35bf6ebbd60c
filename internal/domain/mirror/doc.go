// Package mirror contains the Mirror bounded context.
// It keeps a local copy of a remote store's orders and products and exposes
// aggregated, paginated views of that copy.
//
// Key concepts:
//   - Product: a remote product snapshot, created the first time an order references it
//   - Order: a remote order whose line items reference local products
//   - RemoteSource: port for reading orders and products from the remote platform
//   - OrderRepository / ProductRepository: ports for the local mirror store
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package mirror
