package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/session"
	"github.com/example/pizzashop/pkg/store"
)

func seedOrder(t *testing.T, mem *store.Memory, collection string, ord models.Order) {
	t.Helper()
	doc, err := store.Encode(ord)
	require.NoError(t, err)
	_, err = mem.Create(context.Background(), collection, doc)
	require.NoError(t, err)
}

func TestObserverProjectsOwnOrdersNewestFirst(t *testing.T) {
	mem := store.NewMemory()
	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-100-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 100})
	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-200-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 200})

	o := NewObserver(mem, zap.NewNop())
	sess := session.New()
	o.Bind(sess)
	sess.SetIdentity(&models.Identity{ID: "Alice", DisplayName: "Alice", Role: models.RoleCustomer})

	own := o.Own()
	require.Len(t, own, 2)
	assert.Equal(t, "ORD-200-0", own[0].OrderNumber)
	assert.Equal(t, "ORD-100-0", own[1].OrderNumber)
	assert.NotEmpty(t, own[0].DocPath)
	assert.Empty(t, o.All(), "customers never see the cross-identity view")
}

func TestObserverTracksNewOrders(t *testing.T) {
	mem := store.NewMemory()
	o := NewObserver(mem, zap.NewNop())
	sess := session.New()
	o.Bind(sess)
	sess.SetIdentity(&models.Identity{ID: "Alice", DisplayName: "Alice", Role: models.RoleCustomer})
	require.Empty(t, o.Own())

	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-300-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 300})

	own := o.Own()
	require.Len(t, own, 1)
	assert.Equal(t, "ORD-300-0", own[0].OrderNumber)
}

func TestObserverAdminSeesAllCustomers(t *testing.T) {
	mem := store.NewMemory()
	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-100-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 100})
	seedOrder(t, mem, store.CustomerOrdersPath("Bob"),
		models.Order{OrderNumber: "ORD-200-0", Customer: "Bob", Status: models.StatusDelivered, Timestamp: 200})

	o := NewObserver(mem, zap.NewNop())
	sess := session.New()
	o.Bind(sess)
	sess.SetIdentity(models.AdminIdentity())

	all := o.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Bob", all[0].Customer)
	assert.Equal(t, "Alice", all[1].Customer)
}

func TestObserverIdentitySwitchDropsProjections(t *testing.T) {
	mem := store.NewMemory()
	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-100-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 100})

	o := NewObserver(mem, zap.NewNop())
	sess := session.New()
	o.Bind(sess)
	sess.SetIdentity(&models.Identity{ID: "Alice", DisplayName: "Alice", Role: models.RoleCustomer})
	require.Len(t, o.Own(), 1)

	sess.SetIdentity(&models.Identity{ID: "Bob", DisplayName: "Bob", Role: models.RoleCustomer})
	assert.Empty(t, o.Own(), "no leakage of the previous identity's orders")

	sess.SetIdentity(nil)
	assert.Empty(t, o.Own())
	assert.Empty(t, o.All())
}

func TestObserverAdminLosesAllViewOnDemotion(t *testing.T) {
	mem := store.NewMemory()
	seedOrder(t, mem, store.CustomerOrdersPath("Alice"),
		models.Order{OrderNumber: "ORD-100-0", Customer: "Alice", Status: models.StatusPending, Timestamp: 100})

	o := NewObserver(mem, zap.NewNop())
	sess := session.New()
	o.Bind(sess)

	sess.SetIdentity(models.AdminIdentity())
	require.Len(t, o.All(), 1)

	sess.SetIdentity(&models.Identity{ID: "Alice", DisplayName: "Alice", Role: models.RoleCustomer})
	assert.Empty(t, o.All())
	assert.Len(t, o.Own(), 1)
}
