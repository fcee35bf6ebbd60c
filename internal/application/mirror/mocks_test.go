package mirror

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of mirror.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByExternalID(ctx context.Context, externalID int64) (*mirror.Product, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *mirror.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) List(ctx context.Context, filter mirror.ProductFilter) (*mirror.Page[mirror.ProductSummary], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Page[mirror.ProductSummary]), args.Error(1)
}

func (m *MockProductRepository) FindUnreferenced(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockProductRepository) DeleteUnreferenced(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of mirror.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Upsert(ctx context.Context, order *mirror.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindByOID(ctx context.Context, oid int64) (*mirror.Order, error) {
	args := m.Called(ctx, oid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter mirror.OrderFilter) (*mirror.Page[mirror.Order], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.Page[mirror.Order]), args.Error(1)
}

func (m *MockOrderRepository) FindStale(ctx context.Context, cutoff time.Time) ([]mirror.StaleOrder, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mirror.StaleOrder), args.Error(1)
}

func (m *MockOrderRepository) DeleteStale(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, ids, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockRemoteSource is a mock implementation of mirror.RemoteSource
type MockRemoteSource struct {
	mock.Mock
}

func (m *MockRemoteSource) FetchOrders(ctx context.Context, since time.Time) (*mirror.OrderBatch, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.OrderBatch), args.Error(1)
}

func (m *MockRemoteSource) FetchProductByID(ctx context.Context, id int64) (*mirror.RemoteProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mirror.RemoteProduct), args.Error(1)
}

// fixedClock returns a clock stuck at t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func remoteOrder(oid int64, productIDs ...int64) mirror.RemoteOrder {
	ro := mirror.RemoteOrder{
		ID:          oid,
		Number:      "#" + strconv.FormatInt(oid, 10),
		Status:      "processing",
		DateCreated: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Total:       "10.00",
	}
	for i, pid := range productIDs {
		ro.LineItems = append(ro.LineItems, mirror.RemoteLineItem{
			ID:        oid*100 + int64(i),
			Name:      "Item",
			ProductID: pid,
			Quantity:  1,
			Total:     "10.00",
			Price:     "10.00",
		})
	}
	return ro
}
