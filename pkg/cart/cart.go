package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/fault"
	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/session"
	"github.com/example/pizzashop/pkg/store"
)

// Cart owns the pending line items of the active identity. The local
// projection is authoritative for reads; every mutation is mirrored to the
// remote per-identity cart collection, and the live subscription replaces
// the projection wholesale on every remote change.
type Cart struct {
	store  store.Store
	logger *zap.Logger

	mu       sync.Mutex
	identity *models.Identity
	epoch    uint64
	items    []models.CartItem
	unsub    store.Unsubscribe
}

func New(st store.Store, logger *zap.Logger) *Cart {
	return &Cart{store: st, logger: logger}
}

// Bind ties the cart's lifetime to the session: every identity change
// empties the projection, tears down the previous subscription and, when an
// identity is active, re-populates from its remote cart collection.
func (c *Cart) Bind(sess *session.Context) {
	sess.Watch(c.onIdentityChange)
}

func (c *Cart) onIdentityChange(identity *models.Identity, epoch uint64) {
	c.mu.Lock()
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.identity = identity
	c.epoch = epoch
	c.items = nil
	c.mu.Unlock()

	if identity == nil {
		return
	}

	unsub, err := c.store.Subscribe(context.Background(), store.CartPath(identity.ID),
		func(snap store.Snapshot) { c.apply(epoch, snap) },
		func(err error) {
			c.logger.Error("cart subscription error",
				zap.String("customer", identity.ID), zap.Error(err))
		})
	if err != nil {
		c.logger.Error("failed to subscribe to cart",
			zap.String("customer", identity.ID), zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.unsub = unsub
		c.mu.Unlock()
		return
	}
	// Identity changed while subscribing; this subscription is stale.
	c.mu.Unlock()
	unsub()
}

func (c *Cart) apply(epoch uint64, snap store.Snapshot) {
	items := make([]models.CartItem, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		var item models.CartItem
		if err := store.Decode(d.Data, &item); err != nil {
			c.logger.Warn("skipping undecodable cart document",
				zap.String("path", d.Path), zap.Error(err))
			continue
		}
		item.ID = d.ID
		item.DocPath = d.Path
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp < items[j].Timestamp })

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		// Late notification from a torn-down subscription.
		return
	}
	c.items = items
}

// AddItem appends an item to the active identity's cart and mirrors it to
// the remote collection. A remote write failure is logged and the local add
// stands; the only caller-visible failure is the absence of an identity.
func (c *Cart) AddItem(ctx context.Context, item models.CartItem) error {
	c.mu.Lock()
	identity := c.identity
	if identity == nil {
		c.mu.Unlock()
		return fault.ErrUnauthenticated
	}
	item.Customer = identity.ID
	if item.AddedAt == "" {
		now := time.Now()
		item.AddedAt = now.UTC().Format(time.RFC3339)
		item.Timestamp = now.UnixMilli()
	}
	c.items = append(c.items, item)
	c.mu.Unlock()

	doc, err := store.Encode(item)
	if err == nil {
		_, err = c.store.Create(ctx, store.CartPath(identity.ID), doc)
	}
	if err != nil {
		c.logger.Error("failed to mirror cart item to remote store",
			zap.String("customer", identity.ID), zap.String("item", item.Name), zap.Error(err))
	}
	return nil
}

// RemoveItem removes the item at the given position in the local
// projection. An out-of-range index is a no-op. The matching durable record
// is deleted when one exists.
func (c *Cart) RemoveItem(ctx context.Context, index int) {
	c.mu.Lock()
	if index < 0 || index >= len(c.items) {
		c.mu.Unlock()
		return
	}
	removed := c.items[index]
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	c.mu.Unlock()

	if removed.DocPath == "" {
		return
	}
	if err := c.store.Delete(ctx, removed.DocPath); err != nil {
		c.logger.Error("failed to delete cart item from remote store",
			zap.String("path", removed.DocPath), zap.Error(err))
	}
}

// Clear empties the local projection immediately and deletes the durable
// per-identity cart records in the background. Deletion failures are logged
// and never roll back the local clear.
func (c *Cart) Clear(_ context.Context) {
	c.mu.Lock()
	identity := c.identity
	c.items = nil
	c.mu.Unlock()

	if identity == nil {
		return
	}
	// Deletion outlives the triggering request.
	go func() {
		if err := c.store.DeleteAll(context.Background(), store.CartPath(identity.ID)); err != nil {
			c.logger.Error("failed to clear remote cart",
				zap.String("customer", identity.ID), zap.Error(err))
		}
	}()
}

// Items returns a copy of the current projection.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the derived sum of item prices, recomputed on every call.
func (c *Cart) Total() int64 {
	return models.CartTotal(c.Items())
}
