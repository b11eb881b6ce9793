package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/fault"
	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/store"
)

// CartClearer empties the cart after a fully successful placement.
type CartClearer interface {
	Clear(ctx context.Context)
}

// Placer converts a cart snapshot into persisted orders: one order per line
// item, each written to three sinks (the customer's private history, the
// flat global collection and the append-only audit collection). The backing
// store has no cross-collection transactions, so partial failure is
// surfaced, never masked: the loop stops at the first failed write and
// earlier orders remain persisted.
type Placer struct {
	store   store.Store
	logger  *zap.Logger
	clearer CartClearer
	now     func() time.Time
}

func NewPlacer(st store.Store, logger *zap.Logger, clearer CartClearer) *Placer {
	return &Placer{store: st, logger: logger, clearer: clearer, now: time.Now}
}

// Place persists one order per item, in input order, and clears the cart
// once every write has succeeded. It returns the ID of the first created
// order as a representative handle for the batch.
func (p *Placer) Place(ctx context.Context, identity *models.Identity, items []models.CartItem) (string, error) {
	if identity == nil {
		return "", fault.ErrUnauthenticated
	}
	if len(items) == 0 {
		return "", fault.ErrEmptyCart
	}

	base := p.now().UnixMilli()
	var firstID string

	for i, item := range items {
		ord := models.NewOrder(identity, item, base, i)

		doc, err := store.Encode(ord)
		if err != nil {
			return "", fault.RemoteWrite("encode order "+ord.OrderNumber, err)
		}

		customerID, err := p.store.Create(ctx, store.CustomerOrdersPath(identity.ID), doc)
		if err != nil {
			return "", fault.RemoteWrite("create customer order "+ord.OrderNumber, err)
		}
		if _, err := p.store.Create(ctx, store.OrdersCollection, doc); err != nil {
			return "", fault.RemoteWrite("create global order "+ord.OrderNumber, err)
		}

		audit := cloneDoc(doc)
		audit["customerOrderId"] = customerID
		if _, err := p.store.Create(ctx, store.OrderHistoryCollection, audit); err != nil {
			return "", fault.RemoteWrite("create audit order "+ord.OrderNumber, err)
		}

		if firstID == "" {
			firstID = customerID
		}
	}

	p.logger.Info("order batch placed",
		zap.String("customer", identity.ID),
		zap.Int("orders", len(items)),
		zap.Int64("total", models.CartTotal(items)))

	p.clearer.Clear(ctx)
	return firstID, nil
}

func cloneDoc(doc store.Document) store.Document {
	out := make(store.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	return out
}
