package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storemirror/backend/internal/domain/mirror"
	"go.uber.org/zap"
)

// ProductResolver maps a remote product id to a local product id,
// fetching and persisting the product on first sight
type ProductResolver struct {
	productRepo mirror.ProductRepository
	remote      mirror.RemoteSource
	logger      *zap.Logger
}

// NewProductResolver creates a new ProductResolver
func NewProductResolver(productRepo mirror.ProductRepository, remote mirror.RemoteSource, logger *zap.Logger) *ProductResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductResolver{
		productRepo: productRepo,
		remote:      remote,
		logger:      logger,
	}
}

// Resolve returns the local id of the product with the given remote id.
// The second return value reports whether the product was created by this call.
// Every failure wraps mirror.ErrProductResolution.
func (r *ProductResolver) Resolve(ctx context.Context, externalID int64) (uuid.UUID, bool, error) {
	existing, err := r.productRepo.FindByExternalID(ctx, externalID)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, mirror.ErrProductNotFound) {
		return uuid.Nil, false, fmt.Errorf("%w: product %d: %w", mirror.ErrProductResolution, externalID, err)
	}

	remote, err := r.remote.FetchProductByID(ctx, externalID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%w: product %d: %w", mirror.ErrProductResolution, externalID, err)
	}

	product := mirror.NewProductFromRemote(remote)
	if err := r.productRepo.Create(ctx, product); err != nil {
		if !errors.Is(err, mirror.ErrDuplicateProduct) {
			return uuid.Nil, false, fmt.Errorf("%w: product %d: %w", mirror.ErrProductResolution, externalID, err)
		}
		// another writer inserted it first
		winner, findErr := r.productRepo.FindByExternalID(ctx, externalID)
		if findErr != nil {
			return uuid.Nil, false, fmt.Errorf("%w: product %d: %w", mirror.ErrProductResolution, externalID, findErr)
		}
		r.logger.Debug("Product inserted concurrently, using existing row",
			zap.Int64("product_id", externalID),
			zap.String("local_id", winner.ID.String()),
		)
		return winner.ID, false, nil
	}

	r.logger.Info("Mirrored new product",
		zap.Int64("product_id", externalID),
		zap.String("local_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return product.ID, true, nil
}
