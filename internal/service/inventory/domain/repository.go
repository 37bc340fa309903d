package domain

import "context"

// StockRepository persists stock records. Implemented by the GORM adapter in
// the infrastructure layer.
type StockRepository interface {
	Create(ctx context.Context, record *StockRecord) error

	FindByID(ctx context.Context, id uint64) (*StockRecord, error)

	// FindByProduct returns all records for a product/variant ordered by
	// location, so callers that iterate them behave deterministically.
	FindByProduct(ctx context.Context, productID, variantID string) ([]StockRecord, error)

	// UpdateWithVersion writes the record's quantity state if and only if the
	// stored version still equals expectedVersion. Returns ErrVersionConflict
	// when it does not.
	UpdateWithVersion(ctx context.Context, record *StockRecord, expectedVersion int64) error
}
