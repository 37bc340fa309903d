package infrastructure

import "github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

func toDomainOrder(m *OrderModel) *domain.Order {
	if m == nil {
		return nil
	}
	items := make([]domain.LineItem, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &domain.Order{
		ID:                m.ID,
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		Status:            domain.Status(m.Status),
		PaymentStatus:     domain.PaymentStatus(m.PaymentStatus),
		Items:             items,
		TotalAmount:       m.TotalAmount,
		ShippingAddressID: m.ShippingAddressID,
		CancelReason:      m.CancelReason,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func fromDomainOrder(d *domain.Order) *OrderModel {
	if d == nil {
		return nil
	}
	items := make([]OrderItemModel, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, OrderItemModel{
			OrderID:   d.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return &OrderModel{
		ID:                d.ID,
		OrderNumber:       d.OrderNumber,
		UserID:            d.UserID,
		Status:            d.Status.String(),
		PaymentStatus:     d.PaymentStatus.String(),
		TotalAmount:       d.TotalAmount,
		ShippingAddressID: d.ShippingAddressID,
		CancelReason:      d.CancelReason,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		Items:             items,
	}
}
