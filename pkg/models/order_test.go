package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-1700000000000-0", OrderNumber(1700000000000, 0))
	assert.Equal(t, "ORD-1700000000000-7", OrderNumber(1700000000000, 7))
}

func TestOrderNumbersDistinctWithinBatch(t *testing.T) {
	base := int64(1700000000000)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n := OrderNumber(base, i)
		assert.False(t, seen[n], fmt.Sprintf("duplicate order number %s", n))
		seen[n] = true
	}
}

func TestNewOrder(t *testing.T) {
	alice := &Identity{ID: "alice", DisplayName: "Alice", Role: RoleCustomer}
	item := CartItem{Name: "Margherita", Description: "Classic cheese pizza", Price: 199}

	ord := NewOrder(alice, item, 1700000000000, 2)

	assert.Equal(t, "ORD-1700000000000-2", ord.OrderNumber)
	assert.Equal(t, "alice", ord.Customer)
	assert.Equal(t, "Alice", ord.CustomerDisplayName)
	assert.Equal(t, 1, ord.ItemCount)
	assert.Len(t, ord.Items, 1)
	assert.Equal(t, "Margherita", ord.Items[0].Name)
	assert.Equal(t, int64(199), ord.Items[0].Price)
	assert.Equal(t, 1, ord.Items[0].Position)
	assert.Equal(t, "alice", ord.Items[0].OrderedBy)
	assert.Equal(t, int64(199), ord.Total)
	assert.Equal(t, StatusPending, ord.Status)
	assert.Equal(t, int64(1700000000002), ord.Timestamp)
	assert.Equal(t, "web", ord.Source)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusDelivered, NormalizeStatus("confirmed"))
	assert.Equal(t, StatusDelivered, NormalizeStatus("delivered"))
	assert.Equal(t, StatusCancelled, NormalizeStatus("cancelled"))
	assert.Equal(t, StatusPending, NormalizeStatus("pending"))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestResolveRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ResolveRole("admin"))
	assert.Equal(t, RoleCustomer, ResolveRole("alice"))
	assert.True(t, AdminIdentity().IsAdmin())

	var nobody *Identity
	assert.False(t, nobody.IsAdmin())
}
