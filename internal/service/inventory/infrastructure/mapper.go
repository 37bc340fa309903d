package infrastructure

import "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/domain"

func toDomainStockRecord(m *StockRecordModel) *domain.StockRecord {
	if m == nil {
		return nil
	}
	return &domain.StockRecord{
		ID:                m.ID,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		Location:          m.Location,
		OnHand:            m.OnHand,
		Reserved:          m.Reserved,
		LowStockThreshold: m.LowStockThreshold,
		ReorderLevel:      m.ReorderLevel,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromDomainStockRecord(d *domain.StockRecord) *StockRecordModel {
	if d == nil {
		return nil
	}
	return &StockRecordModel{
		ID:                d.ID,
		ProductID:         d.ProductID,
		VariantID:         d.VariantID,
		Location:          d.Location,
		OnHand:            d.OnHand,
		Reserved:          d.Reserved,
		LowStockThreshold: d.LowStockThreshold,
		ReorderLevel:      d.ReorderLevel,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
