package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/webdesk/auth"
	"github.com/mwantia/webdesk/command/builtin"
	"github.com/mwantia/webdesk/config"
	"github.com/mwantia/webdesk/dispatch"
	"github.com/mwantia/webdesk/home"
	"github.com/mwantia/webdesk/home/local"
	"github.com/mwantia/webdesk/home/memory"
	"github.com/mwantia/webdesk/home/s3"
	"github.com/mwantia/webdesk/interaction"
	"github.com/mwantia/webdesk/log"
	"github.com/mwantia/webdesk/store"
	"github.com/mwantia/webdesk/store/postgres"
	"github.com/mwantia/webdesk/store/sqlite"
)

// runtime holds every long-lived component built from one configuration.
type runtime struct {
	store        store.Store
	tree         home.Tree
	interactions interaction.Store
	manager      *auth.Manager
	dispatcher   *dispatch.Dispatcher
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *log.Logger) (*runtime, error) {
	rt := &runtime{}

	var err error
	if rt.store, err = openStore(ctx, cfg.Database); err != nil {
		return nil, err
	}
	if rt.tree, err = openTree(ctx, cfg.Home); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	if rt.interactions, err = openInteractions(cfg); err != nil {
		rt.Close(ctx)
		return nil, err
	}

	quota, err := cfg.QuotaBytes()
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.manager, err = auth.NewManager(rt.store, rt.tree,
		auth.WithQuota(quota),
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
		auth.WithLogger(logger.Named("auth")))
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	registry, err := builtin.NewRegistry()
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.dispatcher, err = dispatch.New(registry, rt.interactions,
		dispatch.WithLogger(logger.Named("dispatch")),
		dispatch.WithLockTimeout(cfg.Server.LockTimeout))
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	logger.Debug("Using store '%s', home tree '%s' and interaction store '%s'",
		rt.store.Name(), rt.tree.Name(), cfg.Interaction.Store)
	return rt, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := sqlite.NewSQLiteStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := postgres.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openTree(ctx context.Context, cfg config.HomeConfig) (home.Tree, error) {
	var tree home.Tree
	switch cfg.Backend {
	case "memory":
		tree = memory.NewMemoryTree()
	case "local":
		tree = local.NewLocalTree(cfg.Root)
	case "s3":
		s3tree, err := s3.NewS3Tree(s3.S3TreeConfig{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		tree = s3tree
	default:
		return nil, fmt.Errorf("unknown home backend %q", cfg.Backend)
	}

	if err := tree.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open home tree '%s': %w", tree.Name(), err)
	}
	return tree, nil
}

func openInteractions(cfg *config.Config) (interaction.Store, error) {
	key, err := cfg.StateKey()
	if err != nil {
		return nil, err
	}
	codec, err := interaction.NewCodec(key)
	if err != nil {
		return nil, err
	}

	switch cfg.Interaction.Store {
	case "memory":
		return interaction.NewMemoryStore(), nil
	case "sqlite":
		st, err := interaction.NewSQLiteStore(cfg.Interaction.Path, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to open interaction store: %w", err)
		}
		return st, nil
	case "consul":
		st, err := interaction.NewConsulStore(&interaction.ConsulStoreConfig{
			Address:    cfg.Interaction.Consul.Address,
			Token:      cfg.Interaction.Consul.Token,
			Datacenter: cfg.Interaction.Consul.Datacenter,
			Prefix:     cfg.Interaction.Consul.Prefix,
			LockWait:   cfg.Server.LockTimeout,
		}, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown interaction store %q", cfg.Interaction.Store)
	}
}

func (rt *runtime) Close(ctx context.Context) error {
	errs := make([]error, 0)
	if rt.interactions != nil {
		errs = append(errs, rt.interactions.Close(ctx))
	}
	if rt.tree != nil {
		errs = append(errs, rt.tree.Close(ctx))
	}
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	return errors.Join(errs...)
}
