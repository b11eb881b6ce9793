package session

import (
	"sync"

	"github.com/example/pizzashop/pkg/models"
)

// Watcher observes identity changes. The epoch increases monotonically on
// every change and lets consumers reject snapshots that belong to a
// torn-down subscription.
type Watcher func(identity *models.Identity, epoch uint64)

// Context carries the active identity for one session. It replaces the
// original implementation's global mutable auth state: components receive a
// Context at construction time and watch it for identity changes.
type Context struct {
	mu       sync.Mutex
	identity *models.Identity
	epoch    uint64
	watchers []Watcher
}

func New() *Context {
	return &Context{}
}

// Identity returns the active identity, or nil when signed out.
func (c *Context) Identity() *models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *Context) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// SetIdentity installs a new active identity (nil for sign-out), bumps the
// epoch and notifies every watcher in registration order.
func (c *Context) SetIdentity(identity *models.Identity) {
	c.mu.Lock()
	c.identity = identity
	c.epoch++
	epoch := c.epoch
	watchers := make([]Watcher, len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.Unlock()

	for _, w := range watchers {
		w(identity, epoch)
	}
}

// Watch registers a watcher and immediately delivers the current state so a
// late-registering component starts from a consistent view.
func (c *Context) Watch(w Watcher) {
	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	identity := c.identity
	epoch := c.epoch
	c.mu.Unlock()

	w(identity, epoch)
}
