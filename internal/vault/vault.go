// internal/vault/vault.go
//
// Vault client wrapper for secret references in configuration.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for one job: turning a config value
//     such as `vault:secret/maillog/smtp#password` into the stored string.
//   - Values are cached per reference for a short TTL so Reload() does not
//     hammer Vault.
//   - A background loop keeps a renewable token alive until ctx is done.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, zap.S())           // during boot.
//  2. cfg, err := config.Load(ctx, cli)              // resolves references.
//
// Environment expectations
// ------------------------
//   - VAULT_ADDR   scheme and host of the Vault server.
//   - VAULT_TOKEN  initial token (falls back to ~/.vault-token).
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// CacheTTL bounds how long a resolved secret is reused.
const CacheTTL = 5 * time.Minute

// ErrBadReference is returned for a reference that is not
// `vault:mount/path#key`.
var ErrBadReference = errors.New("vault: reference must look like vault:mount/path#key")

//
// SECTION 1.  Public façade
//

// KV is the slice of the KV-v2 API the client needs.  Tests substitute it.
type KV interface {
	Get(ctx context.Context, mount, path string) (map[string]any, error)
}

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	kv  KV
	log *zap.SugaredLogger
	now func() time.Time

	cacheMu sync.RWMutex
	cache   map[string]cached // full reference → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New builds a client from the VAULT_* environment and starts token
// renewal.  log may be nil.
func New(ctx context.Context, log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}

	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}

	c := NewWithKV(kvv2{api: api}, log)
	go c.renewLoop(ctx, api)
	return c, nil
}

// NewWithKV wires a client around any KV implementation.
func NewWithKV(kv KV, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.S()
	}
	return &Client{
		kv:    kv,
		log:   log,
		now:   time.Now,
		cache: make(map[string]cached),
	}
}

// Resolve returns the value behind ref.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	mount, path, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}

	c.cacheMu.RLock()
	if cv, ok := c.cache[ref]; ok && c.now().Before(cv.exp) {
		c.cacheMu.RUnlock()
		return cv.val, nil
	}
	c.cacheMu.RUnlock()

	data, err := c.kv.Get(ctx, mount, path)
	if err != nil {
		return "", fmt.Errorf("vault get %s/%s: %w", mount, path, err)
	}
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in %s/%s", key, mount, path)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: value at %s/%s#%s is not a string", mount, path, key)
	}

	c.cacheMu.Lock()
	c.cache[ref] = cached{val: sval, exp: c.now().Add(CacheTTL)}
	c.cacheMu.Unlock()
	return sval, nil
}

// ParseRef splits `vault:mount/path#key`.
func ParseRef(ref string) (mount, path, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "vault:")
	if !ok {
		return "", "", "", ErrBadReference
	}
	loc, key, ok := strings.Cut(rest, "#")
	if !ok || key == "" {
		return "", "", "", ErrBadReference
	}
	mount, path, ok = strings.Cut(loc, "/")
	if !ok || mount == "" || path == "" {
		return "", "", "", ErrBadReference
	}
	return mount, path, key, nil
}

//
// SECTION 2.  KV-v2 adapter
//

type kvv2 struct{ api *vault.Client }

func (k kvv2) Get(ctx context.Context, mount, path string) (map[string]any, error) {
	sec, err := k.api.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return sec.Data, nil
}

//
// SECTION 3.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context, api *vault.Client) {
	for ctx.Err() == nil {
		sec, err := api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			c.log.Warnw("vault token renew failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.log.Infow("vault token not renewable")
			return
		}

		w, err := api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
			Grace:  15 * time.Second,
		})
		if err != nil {
			c.log.Warnw("vault watcher init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}
		c.watch(ctx, w)
		backoff(ctx, 15*time.Second)
	}
}

// watch blocks until the watcher stops or ctx ends.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
