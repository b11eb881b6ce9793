package order

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/fault"
	"github.com/example/pizzashop/pkg/models"
	"github.com/example/pizzashop/pkg/store"
)

// Applier advances a single order's status. Transitions are one-shot:
// pending orders may become delivered or cancelled, and both of those are
// terminal. Local state is never changed optimistically; callers observe
// the result through the live order projection.
type Applier struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewApplier(st store.Store, logger *zap.Logger) *Applier {
	return &Applier{store: st, logger: logger, now: time.Now}
}

// Transition writes the target status and its transition timestamp to the
// order's durable document. "confirmed" is accepted as a synonym of
// delivered. The order must still be pending and must carry a document
// path; both conditions are checked before any remote call.
func (a *Applier) Transition(ctx context.Context, ord models.Order, target string) error {
	status := models.NormalizeStatus(target)
	if status != models.StatusDelivered && status != models.StatusCancelled {
		return fmt.Errorf("invalid target status %q", target)
	}
	if ord.Status != models.StatusPending {
		return fmt.Errorf("%w: %s is %s", fault.ErrNotPending, ord.OrderNumber, ord.Status)
	}
	if ord.DocPath == "" {
		return fault.ErrMissingReference
	}

	stamp := a.now().UTC().Format(time.RFC3339)
	fields := store.Document{
		"status":    string(status),
		"updatedAt": stamp,
	}
	switch status {
	case models.StatusDelivered:
		fields["deliveredAt"] = stamp
	case models.StatusCancelled:
		fields["cancelledAt"] = stamp
	}

	if err := a.store.Update(ctx, ord.DocPath, fields); err != nil {
		return fault.RemoteWrite("update order status "+ord.OrderNumber, err)
	}

	a.logger.Info("order status updated",
		zap.String("order", ord.OrderNumber),
		zap.String("status", string(status)))
	return nil
}
