package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"go.uber.org/zap"
)

// DefaultSyncWindow is how far back a sync run looks for orders
const DefaultSyncWindow = 30 * 24 * time.Hour

// SyncService reconciles recent remote orders into the mirror
type SyncService struct {
	orderRepo mirror.OrderRepository
	remote    mirror.RemoteSource
	resolver  *ProductResolver
	window    time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// SyncOption configures a SyncService
type SyncOption func(*SyncService)

// WithSyncWindow sets how far back a run looks for orders
func WithSyncWindow(window time.Duration) SyncOption {
	return func(s *SyncService) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithSyncClock replaces the wall clock
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService creates a new SyncService
func NewSyncService(
	orderRepo mirror.OrderRepository,
	remote mirror.RemoteSource,
	resolver *ProductResolver,
	logger *zap.Logger,
	opts ...SyncOption,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SyncService{
		orderRepo: orderRepo,
		remote:    remote,
		resolver:  resolver,
		window:    DefaultSyncWindow,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSync fetches the orders created within the window and upserts each one whose
// products all resolve. Orders are processed sequentially; a failing order, including one
// the remote rejected as malformed, is recorded and the run moves on. Only a failed batch
// fetch aborts the run.
func (s *SyncService) RunSync(ctx context.Context) (*mirror.SyncOutcome, error) {
	startedAt := s.now().UTC()
	outcome := &mirror.SyncOutcome{
		Since:     startedAt.Add(-s.window),
		StartedAt: startedAt,
		Failures:  make([]mirror.OrderFailure, 0),
	}

	s.logger.Info("Starting order sync", zap.Time("since", outcome.Since))

	batch, err := s.remote.FetchOrders(ctx, outcome.Since)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Finish(s.now().UTC())
		s.logger.Error("Failed to fetch order batch", zap.Error(err))
		return outcome, fmt.Errorf("%w: %w", mirror.ErrOrderBatchFetch, err)
	}
	outcome.Fetched = batch.Len()

	for _, rejected := range batch.Rejected {
		s.logger.Warn("Skipping malformed order",
			zap.Int64("oid", rejected.OID),
			zap.String("number", rejected.Number),
			zap.Int64("product_id", rejected.ProductID),
			zap.String("reason", rejected.Reason),
		)
		outcome.Skipped++
		outcome.Failures = append(outcome.Failures, mirror.OrderFailure{
			OID:       rejected.OID,
			Number:    rejected.Number,
			ProductID: rejected.ProductID,
			Reason:    rejected.Reason,
		})
	}

	// resolutions are reused for the rest of the run; Upsert re-checks that the products still exist
	resolved := make(map[int64]uuid.UUID)
	for i := range batch.Orders {
		s.syncOrder(ctx, &batch.Orders[i], resolved, outcome)
	}

	outcome.Finish(s.now().UTC())
	s.logger.Info("Order sync finished",
		zap.String("status", outcome.Status.String()),
		zap.Int("fetched", outcome.Fetched),
		zap.Int("created", outcome.Created),
		zap.Int("updated", outcome.Updated),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("failed", outcome.Failed),
		zap.Int("products_created", outcome.ProductsCreated),
		zap.Duration("duration", outcome.Duration()),
	)
	return outcome, nil
}

// syncOrder resolves every line item of one order and writes it, recording the result in outcome
func (s *SyncService) syncOrder(ctx context.Context, ro *mirror.RemoteOrder, resolved map[int64]uuid.UUID, outcome *mirror.SyncOutcome) {
	for _, li := range ro.LineItems {
		if _, ok := resolved[li.ProductID]; ok {
			continue
		}
		id, created, err := s.resolver.Resolve(ctx, li.ProductID)
		if err != nil {
			s.logger.Warn("Skipping order with unresolvable product",
				zap.Int64("oid", ro.ID),
				zap.String("number", ro.Number),
				zap.Int64("product_id", li.ProductID),
				zap.Error(err),
			)
			outcome.Skipped++
			outcome.Failures = append(outcome.Failures, mirror.OrderFailure{
				OID:       ro.ID,
				Number:    ro.Number,
				ProductID: li.ProductID,
				Reason:    err.Error(),
			})
			return
		}
		resolved[li.ProductID] = id
		if created {
			outcome.ProductsCreated++
		}
	}

	order := mirror.NewOrderFromRemote(ro, resolved)
	isNew, err := s.orderRepo.Upsert(ctx, order)
	if err != nil {
		s.logger.Error("Failed to write order",
			zap.Int64("oid", ro.ID),
			zap.String("number", ro.Number),
			zap.Error(err),
		)
		outcome.Failed++
		outcome.Failures = append(outcome.Failures, mirror.OrderFailure{
			OID:    ro.ID,
			Number: ro.Number,
			Reason: err.Error(),
		})
		return
	}

	if isNew {
		outcome.Created++
	} else {
		outcome.Updated++
	}
	s.logger.Debug("Order synced", zap.Int64("oid", ro.ID), zap.Bool("created", isNew))
}
