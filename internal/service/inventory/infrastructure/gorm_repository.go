package infrastructure

import (
	"context"
	stderrors "errors"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormStockRepository is the GORM implementation of domain.StockRepository.
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) Create(ctx context.Context, record *domain.StockRecord) error {
	model := fromDomainStockRecord(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "create stock record")
	}
	record.ID = model.ID
	record.CreatedAt = model.CreatedAt
	record.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormStockRepository) FindByID(ctx context.Context, id uint64) (*domain.StockRecord, error) {
	var model StockRecordModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "find stock record by id")
	}
	return toDomainStockRecord(&model), nil
}

func (r *GormStockRepository) FindByProduct(ctx context.Context, productID, variantID string) ([]domain.StockRecord, error) {
	var models []StockRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_id = ?", productID, variantID).
		Order("location ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "find stock records by product")
	}
	records := make([]domain.StockRecord, 0, len(models))
	for i := range models {
		records = append(records, *toDomainStockRecord(&models[i]))
	}
	return records, nil
}

// UpdateWithVersion is the compare-and-set write the ledger's retry loop
// relies on: the row is only touched when the stored version still matches.
func (r *GormStockRepository) UpdateWithVersion(ctx context.Context, record *domain.StockRecord, expectedVersion int64) error {
	result := r.db.WithContext(ctx).
		Model(&StockRecordModel{}).
		Where("id = ? AND version = ?", record.ID, expectedVersion).
		Updates(map[string]any{
			"on_hand":             record.OnHand,
			"reserved":            record.Reserved,
			"low_stock_threshold": record.LowStockThreshold,
			"reorder_level":       record.ReorderLevel,
			"version":             record.Version,
			"updated_at":          record.UpdatedAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "update stock record")
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
