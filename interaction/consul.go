package interaction

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/webdesk/data"
)

// ConsulStore keeps states in Consul KV and takes a Consul lock per session,
// so several server replicas can share one session space.
type ConsulStore struct {
	client *api.Client
	kv     *api.KV
	codec  *Codec

	config *ConsulStoreConfig
}

// ConsulStoreConfig contains configuration options for the Consul store
type ConsulStoreConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "webdesk/interaction")
	Prefix string

	// LockWait bounds a single lock attempt (default: 5s)
	LockWait time.Duration
}

func NewConsulStore(config *ConsulStoreConfig, codec *Codec) (*ConsulStore, error) {
	if config == nil {
		config = &ConsulStoreConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	if config.Prefix == "" {
		config.Prefix = "webdesk/interaction"
	}
	if config.LockWait <= 0 {
		config.LockWait = 5 * time.Second
	}
	if codec == nil {
		codec = &Codec{}
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulStore{
		client: client,
		kv:     client.KV(),
		codec:  codec,
		config: config,
	}, nil
}

func (cs *ConsulStore) stateKey(sessionID string) string {
	return strings.TrimSuffix(cs.config.Prefix, "/") + "/state/" + sessionID
}

func (cs *ConsulStore) lockKey(sessionID string) string {
	return strings.TrimSuffix(cs.config.Prefix, "/") + "/lock/" + sessionID
}

func (cs *ConsulStore) Load(ctx context.Context, sessionID string) (State, error) {
	pair, _, err := cs.kv.Get(cs.stateKey(sessionID), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return State{}, err
	}
	if pair == nil {
		return State{}, nil
	}

	return cs.codec.Decode(pair.Value)
}

func (cs *ConsulStore) Save(ctx context.Context, sessionID string, state State) error {
	opts := (&api.WriteOptions{}).WithContext(ctx)
	if state.IsZero() {
		_, err := cs.kv.Delete(cs.stateKey(sessionID), opts)
		return err
	}

	buf, err := cs.codec.Encode(state)
	if err != nil {
		return err
	}

	_, err = cs.kv.Put(&api.KVPair{Key: cs.stateKey(sessionID), Value: buf}, opts)
	return err
}

func (cs *ConsulStore) Lock(ctx context.Context, sessionID string) (func(), error) {
	lock, err := cs.client.LockOpts(&api.LockOptions{
		Key:          cs.lockKey(sessionID),
		SessionName:  "webdesk-" + sessionID,
		LockWaitTime: cs.config.LockWait,
	})
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(stop)
		case <-done:
		}
	}()

	lost, err := lock.Lock(stop)
	if err != nil {
		close(done)
		return nil, fmt.Errorf("failed to acquire consul lock: %w", err)
	}
	if lost == nil {
		close(done)
		return nil, fmt.Errorf("%w: session %s", data.ErrLockTimeout, sessionID)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = lock.Unlock()
			_ = lock.Destroy()
		})
	}, nil
}

func (cs *ConsulStore) Close(_ context.Context) error {
	return nil
}
