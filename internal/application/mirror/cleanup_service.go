package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"go.uber.org/zap"
)

// DefaultRetentionMonths is how long an order is kept after its last update
const DefaultRetentionMonths = 3

// CleanupService deletes orders past retention and the products only they referenced
type CleanupService struct {
	orderRepo   mirror.OrderRepository
	productRepo mirror.ProductRepository
	months      int
	now         func() time.Time
	logger      *zap.Logger
}

// CleanupOption configures a CleanupService
type CleanupOption func(*CleanupService)

// WithRetentionMonths sets the retention period in months
func WithRetentionMonths(months int) CleanupOption {
	return func(s *CleanupService) {
		if months > 0 {
			s.months = months
		}
	}
}

// WithCleanupClock replaces the wall clock
func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		s.now = now
	}
}

// NewCleanupService creates a new CleanupService
func NewCleanupService(
	orderRepo mirror.OrderRepository,
	productRepo mirror.ProductRepository,
	logger *zap.Logger,
	opts ...CleanupOption,
) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CleanupService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		months:      DefaultRetentionMonths,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunCleanup deletes orders not updated within the retention period, then deletes the
// products they referenced that no remaining order references.
// If orders were deleted but the product step failed, the outcome is returned together
// with an error wrapping mirror.ErrRetentionInconsistency; the next sweep picks the
// leftovers up again.
func (s *CleanupService) RunCleanup(ctx context.Context) (*mirror.CleanupOutcome, error) {
	startedAt := s.now().UTC()
	outcome := &mirror.CleanupOutcome{
		Cutoff:    startedAt.AddDate(0, -s.months, 0),
		StartedAt: startedAt,
	}

	fail := func(status mirror.RunStatus, err error) (*mirror.CleanupOutcome, error) {
		outcome.Status = status
		outcome.Error = err.Error()
		outcome.FinishedAt = s.now().UTC()
		return outcome, err
	}

	stale, err := s.orderRepo.FindStale(ctx, outcome.Cutoff)
	if err != nil {
		s.logger.Error("Failed to select stale orders", zap.Error(err))
		return fail(mirror.RunStatusFailed, err)
	}
	outcome.StaleOrders = len(stale)
	if len(stale) == 0 {
		outcome.Status = mirror.RunStatusSuccess
		outcome.FinishedAt = s.now().UTC()
		s.logger.Info("No orders past retention", zap.Time("cutoff", outcome.Cutoff))
		return outcome, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(stale))
	seen := make(map[uuid.UUID]struct{})
	candidates := make([]uuid.UUID, 0)
	for _, o := range stale {
		orderIDs = append(orderIDs, o.ID)
		for _, pid := range o.ProductIDs {
			if _, ok := seen[pid]; ok {
				continue
			}
			seen[pid] = struct{}{}
			candidates = append(candidates, pid)
		}
	}
	outcome.CandidateProducts = len(candidates)

	deleted, err := s.orderRepo.DeleteStale(ctx, orderIDs, outcome.Cutoff)
	outcome.OrdersDeleted = deleted
	if err != nil {
		s.logger.Error("Failed to delete stale orders", zap.Int64("deleted", deleted), zap.Error(err))
		if deleted > 0 {
			return fail(mirror.RunStatusPartial, fmt.Errorf("%w: %w", mirror.ErrRetentionInconsistency, err))
		}
		return fail(mirror.RunStatusFailed, err)
	}

	if len(candidates) > 0 {
		orphans, err := s.productRepo.FindUnreferenced(ctx, candidates)
		if err != nil {
			return s.inconsistent(outcome, fail, err)
		}
		outcome.OrphansFound = len(orphans)

		if len(orphans) > 0 {
			removed, err := s.productRepo.DeleteUnreferenced(ctx, orphans)
			outcome.ProductsDeleted = removed
			if err != nil {
				return s.inconsistent(outcome, fail, err)
			}
		}
	}

	outcome.Status = mirror.RunStatusSuccess
	outcome.FinishedAt = s.now().UTC()
	s.logger.Info("Retention sweep finished",
		zap.Time("cutoff", outcome.Cutoff),
		zap.Int("stale_orders", outcome.StaleOrders),
		zap.Int64("orders_deleted", outcome.OrdersDeleted),
		zap.Int("candidate_products", outcome.CandidateProducts),
		zap.Int64("products_deleted", outcome.ProductsDeleted),
		zap.Duration("duration", outcome.Duration()),
	)
	return outcome, nil
}

func (s *CleanupService) inconsistent(
	outcome *mirror.CleanupOutcome,
	fail func(mirror.RunStatus, error) (*mirror.CleanupOutcome, error),
	err error,
) (*mirror.CleanupOutcome, error) {
	s.logger.Error("Orders deleted but orphaned products remain",
		zap.Int64("orders_deleted", outcome.OrdersDeleted),
		zap.Int("candidate_products", outcome.CandidateProducts),
		zap.Error(err),
	)
	return fail(mirror.RunStatusPartial, fmt.Errorf("%w: %w", mirror.ErrRetentionInconsistency, err))
}
