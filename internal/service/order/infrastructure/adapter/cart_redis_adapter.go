package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/redis"
	"github.com/BasicCode11/Backend-EC-sub000/internal/service/order/domain"

	"github.com/pkg/errors"
)

// CartRedisAdapter implements port.CartService on a redis hash per user.
// Unit prices are snapshotted into the hash when the item is added; checkout
// copies them into the order's frozen line items.
type CartRedisAdapter struct {
	client *redis.Client
}

func NewCartRedisAdapter(client *redis.Client) *CartRedisAdapter {
	return &CartRedisAdapter{client: client}
}

type cartEntry struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func fieldKey(productID, variantID string) string {
	if variantID == "" {
		return productID
	}
	return productID + "|" + variantID
}

// GetLineItems returns the cart contents sorted by product/variant, so the
// reservation coordinator sees the same order on every attempt.
func (a *CartRedisAdapter) GetLineItems(ctx context.Context, userID string) ([]domain.LineItem, error) {
	fields, err := a.client.Raw().HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read cart")
	}

	items := make([]domain.LineItem, 0, len(fields))
	for field, raw := range fields {
		var entry cartEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, errors.Wrapf(err, "corrupt cart entry %s for user %s", field, userID)
		}
		items = append(items, domain.LineItem{
			ProductID: entry.ProductID,
			VariantID: entry.VariantID,
			Quantity:  entry.Quantity,
			UnitPrice: entry.UnitPrice,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ProductID != items[j].ProductID {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].VariantID < items[j].VariantID
	})
	return items, nil
}

// AddItem merges quantity into an existing entry and refreshes the price
// snapshot.
func (a *CartRedisAdapter) AddItem(ctx context.Context, userID string, item domain.LineItem) error {
	if item.ProductID == "" || item.Quantity <= 0 {
		return fmt.Errorf("cart item requires a product id and positive quantity")
	}
	key := cartKey(userID)
	field := fieldKey(item.ProductID, item.VariantID)

	existing, err := a.client.Raw().HGet(ctx, key, field).Result()
	quantity := item.Quantity
	if err == nil {
		var entry cartEntry
		if jsonErr := json.Unmarshal([]byte(existing), &entry); jsonErr == nil {
			quantity += entry.Quantity
		}
	}

	raw, err := json.Marshal(cartEntry{
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
	})
	if err != nil {
		return errors.Wrap(err, "marshal cart entry")
	}
	return errors.Wrap(a.client.Raw().HSet(ctx, key, field, raw).Err(), "write cart entry")
}

func (a *CartRedisAdapter) RemoveItem(ctx context.Context, userID, productID, variantID string) error {
	return errors.Wrap(
		a.client.Raw().HDel(ctx, cartKey(userID), fieldKey(productID, variantID)).Err(),
		"remove cart entry")
}

func (a *CartRedisAdapter) Clear(ctx context.Context, userID string) error {
	return errors.Wrap(a.client.Raw().Del(ctx, cartKey(userID)).Err(), "clear cart")
}
