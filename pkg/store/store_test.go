package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pizzashop/pkg/models"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern    string
		collection string
		want       bool
	}{
		{"orders", "orders", true},
		{"orders", "orderHistory", false},
		{"customers/alice/cart", "customers/alice/cart", true},
		{"customers/*/orders", "customers/alice/orders", true},
		{"customers/*/orders", "customers/bob/orders", true},
		{"customers/*/orders", "customers/alice/cart", false},
		{"customers/*/orders", "orders", false},
		{"customers/*/orders", "customers/a/b/orders", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPattern(tt.pattern, tt.collection),
			"pattern %q vs %q", tt.pattern, tt.collection)
	}
}

func TestSplitDocPath(t *testing.T) {
	collection, id, err := SplitDocPath("customers/alice/orders/abc123")
	require.NoError(t, err)
	assert.Equal(t, "customers/alice/orders", collection)
	assert.Equal(t, "abc123", id)

	_, _, err = SplitDocPath("orders")
	assert.Error(t, err)

	_, _, err = SplitDocPath("orders/")
	assert.Error(t, err)
}

func TestEncodeDecodeCartItem(t *testing.T) {
	item := models.CartItem{
		Name:        "Custom Pizza",
		Description: "Onion x1, Paneer x3",
		Price:       145,
		Toppings:    map[string]int{"Onion": 1, "Paneer": 3},
		Customer:    "alice",
		AddedAt:     "2024-03-01T12:00:00Z",
		Timestamp:   1709294400000,
	}

	doc, err := Encode(item)
	require.NoError(t, err)
	assert.Equal(t, "Custom Pizza", doc["name"])
	assert.NotContains(t, doc, "id")
	assert.NotContains(t, doc, "documentPath")

	var decoded models.CartItem
	require.NoError(t, Decode(doc, &decoded))
	assert.Equal(t, item.Name, decoded.Name)
	assert.Equal(t, item.Price, decoded.Price)
	assert.Equal(t, item.Timestamp, decoded.Timestamp)
	assert.Equal(t, item.Toppings, decoded.Toppings)
}

func TestEncodeDecodeOrder(t *testing.T) {
	alice := &models.Identity{ID: "alice", DisplayName: "Alice", Role: models.RoleCustomer}
	ord := models.NewOrder(alice, models.CartItem{Name: "Margherita", Price: 199}, 1700000000000, 0)

	doc, err := Encode(ord)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1700000000000-0", doc["orderNumber"])
	assert.Equal(t, "pending", doc["status"])

	var decoded models.Order
	require.NoError(t, Decode(doc, &decoded))
	assert.Equal(t, ord.OrderNumber, decoded.OrderNumber)
	assert.Equal(t, ord.Status, decoded.Status)
	assert.Equal(t, ord.Timestamp, decoded.Timestamp)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, "Margherita", decoded.Items[0].Name)
	assert.Equal(t, int64(199), decoded.Items[0].Price)
}
