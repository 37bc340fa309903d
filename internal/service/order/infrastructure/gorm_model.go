package infrastructure

import "time"

// OrderModel maps to the orders table.
type OrderModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	OrderNumber       string `gorm:"size:32;not null;uniqueIndex"`
	UserID            string `gorm:"size:64;not null;index"`
	Status            string `gorm:"size:16;not null"`
	PaymentStatus     string `gorm:"size:16;not null"`
	TotalAmount       float64 `gorm:"type:decimal(12,2);not null"`
	ShippingAddressID string `gorm:"size:64"`
	CancelReason      string `gorm:"size:255"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel maps to the order_items table. Rows are created atomically
// with their order and frozen afterwards.
type OrderItemModel struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	OrderID   string  `gorm:"size:36;not null;index"`
	ProductID string  `gorm:"size:64;not null"`
	VariantID string  `gorm:"size:64;not null;default:''"`
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"type:decimal(12,2);not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
