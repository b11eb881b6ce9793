package discovery

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/example/pizzashop/pkg/config"
)

const leaseTTL = 30

// Registry announces the storefront in etcd so operational tooling can find
// running instances. Registration is kept alive by a lease; when the
// process dies the key expires with it.
type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig

	leaseID clientv3.LeaseID
	stop    context.CancelFunc
}

type Instance struct {
	Name string
	Host string
	Port int
}

func NewRegistry(cfg *config.EtcdConfig) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{client: cli, config: cfg}, nil
}

func (r *Registry) key(inst *Instance) string {
	return fmt.Sprintf("%s%s/%s:%d", r.config.Prefix, inst.Name, inst.Host, inst.Port)
}

// Register writes the instance under a leased key and keeps the lease alive
// until Deregister or Close.
func (r *Registry) Register(ctx context.Context, inst *Instance) error {
	lease, err := r.client.Grant(ctx, leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	r.leaseID = lease.ID

	value := fmt.Sprintf("%s:%d", inst.Host, inst.Port)
	if _, err := r.client.Put(ctx, r.key(inst), value, clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	kaCtx, cancel := context.WithCancel(context.Background())
	r.stop = cancel
	ch, err := r.client.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to keep lease alive: %w", err)
	}

	go func() {
		for range ch {
		}
	}()

	return nil
}

func (r *Registry) Deregister(ctx context.Context, inst *Instance) error {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	if _, err := r.client.Delete(ctx, r.key(inst)); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}
	return nil
}

func (r *Registry) Close() error {
	if r.stop != nil {
		r.stop()
	}
	return r.client.Close()
}
