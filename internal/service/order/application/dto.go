package application

import (
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	inventory "github.com/BasicCode11/Backend-EC-sub000/internal/service/inventory/application"
)

// CheckoutRequest is the input for the checkout use case.
type CheckoutRequest struct {
	UserID            string `json:"user_id"`
	ShippingAddressID string `json:"shipping_address_id"`
	// ActorID is the authenticated principal for the audit trail; defaults
	// to the user itself.
	ActorID string `json:"-"`
}

// CheckoutResponse is returned to the interface layer.
type CheckoutResponse struct {
	OrderID     string        `json:"order_id"`
	OrderNumber string        `json:"order_number"`
	Status      domain.Status `json:"status"`
	TotalAmount float64       `json:"total_amount"`
}

func toItemRequests(items []domain.LineItem) []inventory.ItemRequest {
	requests := make([]inventory.ItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, inventory.ItemRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return requests
}
