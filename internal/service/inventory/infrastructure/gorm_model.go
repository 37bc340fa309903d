package infrastructure

import "time"

// StockRecordModel maps to the stock_records table.
type StockRecordModel struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	ProductID         string `gorm:"size:64;not null;uniqueIndex:uidx_stock_product_variant_location,priority:1"`
	VariantID         string `gorm:"size:64;not null;default:'';uniqueIndex:uidx_stock_product_variant_location,priority:2"`
	Location          string `gorm:"size:64;not null;uniqueIndex:uidx_stock_product_variant_location,priority:3"`
	OnHand            int    `gorm:"not null"`
	Reserved          int    `gorm:"not null;default:0"`
	LowStockThreshold int    `gorm:"not null;default:0"`
	ReorderLevel      int    `gorm:"not null;default:0"`
	Version           int64  `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (StockRecordModel) TableName() string {
	return "stock_records"
}
