package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/pizzashop/gateway"
	"github.com/example/pizzashop/pkg/auth"
	"github.com/example/pizzashop/pkg/cart"
	"github.com/example/pizzashop/pkg/config"
	"github.com/example/pizzashop/pkg/discovery"
	"github.com/example/pizzashop/pkg/order"
	"github.com/example/pizzashop/pkg/session"
	"github.com/example/pizzashop/pkg/store"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting pizzashop storefront",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Change-notification bus
	notifier := store.NewRedisNotifier(&cfg.Redis)
	defer notifier.Close()

	ctx := context.Background()
	if err := notifier.Ping(ctx); err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	// Document store
	st, err := store.NewMongo(&cfg.MongoDB, notifier, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		st.Close(closeCtx)
	}()

	if err := st.Ping(ctx); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}

	// Session + identity provider
	sess := session.New()
	creds := auth.NewMongoCredentials(st.Client(), &cfg.MongoDB)
	flags := auth.NewRedisFlagStore(notifier.Client(), cfg.Auth.AdminSessionKey)
	authSvc := auth.NewService(creds, flags, sess, logger, cfg.Auth)

	// Cart and order machinery, bound to the session lifecycle
	shoppingCart := cart.New(st, logger)
	shoppingCart.Bind(sess)

	observer := order.NewObserver(st, logger)
	observer.Bind(sess)

	placer := order.NewPlacer(st, logger, shoppingCart)
	applier := order.NewApplier(st, logger)

	// Restore a persisted admin bypass session, if any
	if err := authSvc.Restore(ctx); err != nil {
		logger.Warn("Failed to restore admin session", zap.Error(err))
	}

	// Announce the instance; the storefront works without etcd
	var registry *discovery.Registry
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	registry, err = discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without registration", zap.Error(err))
		registry = nil
	} else if err := registry.Register(ctx, instance); err != nil {
		logger.Warn("Failed to register instance", zap.Error(err))
	}

	// Gateway
	gw := gateway.New(cfg, logger, sess, authSvc, shoppingCart, placer, observer, applier)
	gw.SetupRoutes()

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	logger.Info("Storefront started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	if registry != nil {
		if err := registry.Deregister(ctx, instance); err != nil {
			logger.Error("Failed to deregister instance", zap.Error(err))
		}
		registry.Close()
	}

	// Tear down subscriptions before the store goes away
	sess.SetIdentity(nil)

	logger.Info("Storefront stopped")
}
