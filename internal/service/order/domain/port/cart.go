package port

import (
	"context"

	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"
)

// CartService is the cart collaborator. The lifecycle reads line items at
// checkout and clears the cart only after a successful commit.
type CartService interface {
	// GetLineItems returns the cart contents in a stable order.
	GetLineItems(ctx context.Context, userID string) ([]domain.LineItem, error)
	AddItem(ctx context.Context, userID string, item domain.LineItem) error
	RemoveItem(ctx context.Context, userID, productID, variantID string) error
	Clear(ctx context.Context, userID string) error
}
