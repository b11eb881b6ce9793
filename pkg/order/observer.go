package order

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/session"
	"github.com/example/pizzashop/pkg/store"
)

// Observer projects the remote order collections into sorted in-memory
// lists: the active identity's own history, and for admins every order
// across all identities. Each notification rebuilds the whole projection
// from the full document set, so the displayed order is always a total
// function of the latest known documents.
type Observer struct {
	store  store.Store
	logger *zap.Logger

	mu       sync.Mutex
	epoch    uint64
	own      []models.Order
	all      []models.Order
	unsubOwn store.Unsubscribe
	unsubAll store.Unsubscribe
}

func NewObserver(st store.Store, logger *zap.Logger) *Observer {
	return &Observer{store: st, logger: logger}
}

// Bind ties subscription lifetime to identity lifetime: an identity change
// tears down the previous subscriptions and establishes new ones; no
// identity means empty projections rather than stale data.
func (o *Observer) Bind(sess *session.Context) {
	sess.Watch(o.onIdentityChange)
}

func (o *Observer) onIdentityChange(identity *models.Identity, epoch uint64) {
	o.mu.Lock()
	if o.unsubOwn != nil {
		o.unsubOwn()
		o.unsubOwn = nil
	}
	if o.unsubAll != nil {
		o.unsubAll()
		o.unsubAll = nil
	}
	o.epoch = epoch
	o.own = nil
	o.all = nil
	o.mu.Unlock()

	if identity == nil {
		return
	}

	o.subscribe(identity, epoch, store.CustomerOrdersPath(identity.ID), &o.unsubOwn, &o.own)
	if identity.IsAdmin() {
		o.subscribe(identity, epoch, store.AllOrdersPattern, &o.unsubAll, &o.all)
	}
}

func (o *Observer) subscribe(identity *models.Identity, epoch uint64, pattern string, slot *store.Unsubscribe, target *[]models.Order) {
	unsub, err := o.store.Subscribe(context.Background(), pattern,
		func(snap store.Snapshot) { o.apply(epoch, snap, target) },
		func(err error) {
			o.logger.Error("order subscription error",
				zap.String("pattern", pattern), zap.Error(err))
		})
	if err != nil {
		o.logger.Error("failed to subscribe to orders",
			zap.String("customer", identity.ID), zap.String("pattern", pattern), zap.Error(err))
		return
	}

	o.mu.Lock()
	if o.epoch == epoch {
		*slot = unsub
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	unsub()
}

func (o *Observer) apply(epoch uint64, snap store.Snapshot, target *[]models.Order) {
	orders := make([]models.Order, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		var ord models.Order
		if err := store.Decode(d.Data, &ord); err != nil {
			o.logger.Warn("skipping undecodable order document",
				zap.String("path", d.Path), zap.Error(err))
			continue
		}
		ord.ID = d.ID
		ord.DocPath = d.Path
		orders = append(orders, ord)
	}
	// Newest first.
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Timestamp > orders[j].Timestamp })

	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch {
		// Late notification from a torn-down subscription.
		return
	}
	*target = orders
}

// Own returns the active identity's order history, newest first.
func (o *Observer) Own() []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Order, len(o.own))
	copy(out, o.own)
	return out
}

// All returns every order across all identities, newest first. Empty unless
// the active identity is an admin.
func (o *Observer) All() []models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Order, len(o.all))
	copy(out, o.all)
	return out
}
