// Package control implements the synchronization control core's public
// control plane (component C4): bind/unbind, root management, the
// pending-work query, and state lookup. Every operation opens its own
// Store session and remote-client cache, matching spec.md §5's
// execution-context-local model — in this embodiment, one context per
// call.
package control

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/metrics"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/stopbus"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/synclog"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

var log = synclog.WithComponent("control")

// Controller is the control core's public facade. It is safe for
// concurrent use: callers never touch a Store session or remote-client
// cache directly, so there is no shared mutable state to race on.
type Controller struct {
	store        *store.Store
	factory      *remote.ClientFactory
	configFolder string
}

// Config configures a new Controller.
type Config struct {
	ConfigFolder string
	DebugLogSQL  bool
}

// New opens the Store at cfg.ConfigFolder and returns a ready
// Controller.
func New(cfg Config) (*Controller, error) {
	if err := os.MkdirAll(cfg.ConfigFolder, 0755); err != nil {
		return nil, fmt.Errorf("create config folder %s: %w", cfg.ConfigFolder, err)
	}
	st, err := store.Open(cfg.ConfigFolder, cfg.DebugLogSQL)
	if err != nil {
		return nil, err
	}
	return &Controller{
		store:        st,
		factory:      remote.NewClientFactory(),
		configFolder: cfg.ConfigFolder,
	}, nil
}

// Factory exposes the remote-client factory so tests can install a
// sticky fault via SetFault (spec.md §9's make_raise re-expression).
func (c *Controller) Factory() *remote.ClientFactory {
	return c.factory
}

// DeviceID returns this installation's stable device identifier.
func (c *Controller) DeviceID() string {
	return c.store.DeviceID()
}

// withSession runs fn inside a Store session, committing on success
// and rolling back on any error fn returns — control operations are
// either fully committed or not applied at all (spec.md §7).
func (c *Controller) withSession(writable bool, fn func(sess *store.Session, cache *remote.Cache) error) error {
	sess, err := c.store.Session(writable)
	if err != nil {
		return err
	}
	cache := remote.NewCache(c.factory)
	if err := fn(sess, cache); err != nil {
		sess.Rollback()
		return err
	}
	return sess.Commit()
}

// BindServer associates localFolder with a remote server account. It
// canonicalizes serverURL, authenticates, and requests a token; if a
// token is issued the password is never persisted. Rebinding with the
// same (local_folder, server_url, user) updates credentials in place;
// rebinding with a different server or user fails with AlreadyBound.
func (c *Controller) BindServer(localFolder, serverURL, user, password string) (*types.ServerBinding, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BindServerDuration)

	localFolder, err := normalizePath(localFolder)
	if err != nil {
		return nil, err
	}
	serverURL, err = normalizeURL(serverURL)
	if err != nil {
		return nil, err
	}

	var result *types.ServerBinding
	err = c.withSession(true, func(sess *store.Session, cache *remote.Cache) error {
		existing, err := sess.GetServerBinding(localFolder)
		if err != nil {
			return err
		}
		if existing != nil && (existing.ServerURL != serverURL || existing.RemoteUser != user) {
			return syncerr.New(syncerr.AlreadyBound, "%s is already bound to %s as %s", localFolder, existing.ServerURL, existing.RemoteUser)
		}

		if err := os.MkdirAll(localFolder, 0755); err != nil {
			return fmt.Errorf("create local folder %s: %w", localFolder, err)
		}

		authSB := &types.ServerBinding{ServerURL: serverURL, RemoteUser: user, RemotePassword: &password}
		client := cache.Get(authSB, c.store.DeviceID(), localFolder, "")
		token, err := client.RequestToken()
		if err != nil {
			return err
		}

		sb := &types.ServerBinding{
			LocalFolder: localFolder,
			ServerURL:   serverURL,
			RemoteUser:  user,
			CreatedAt:   time.Now(),
		}
		if existing != nil {
			sb.CreatedAt = existing.CreatedAt
		}
		if token != "" {
			sb.RemoteToken = &token
		} else {
			sb.RemotePassword = &password
		}

		if err := sess.PutServerBinding(sb); err != nil {
			return err
		}
		result = sb

		all, err := binding.ListServerBindings(sess)
		if err != nil {
			return err
		}
		metrics.ServerBindingsTotal.Set(float64(len(all)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("local_folder", localFolder).Str("server_url", serverURL).Msg("server bound")
	return result, nil
}

// UnbindServer best-effort revokes the server's token, evicts cached
// clients, and deletes the ServerBinding along with every RootBinding
// and pair state beneath it.
func (c *Controller) UnbindServer(localFolder string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.UnbindServerDuration)

	localFolder, err := normalizePath(localFolder)
	if err != nil {
		return err
	}

	return c.withSession(true, func(sess *store.Session, cache *remote.Cache) error {
		sb, err := binding.FindServerBinding(sess, localFolder)
		if err != nil {
			return err
		}

		client := cache.Get(sb, c.store.DeviceID(), localFolder, "")
		if err := client.RevokeToken(); err != nil {
			log.Warn().Err(err).Str("server_url", sb.ServerURL).Msg("token revocation failed, continuing unbind")
		}
		cache.Invalidate(sb.ServerURL)

		roots, err := binding.ListRootBindings(sess, localFolder)
		if err != nil {
			return err
		}
		for _, rb := range roots {
			if err := c.deletePairStatesUnderRoot(sess, rb.LocalRoot); err != nil {
				return err
			}
			if err := sess.DeleteRootBinding(rb.LocalRoot); err != nil {
				return err
			}
		}

		strays, err := sess.ListPairStatesUnderFolder(localFolder)
		if err != nil {
			return err
		}
		for _, p := range strays {
			if err := sess.DeletePairState(p.ID); err != nil {
				return err
			}
		}

		if err := sess.DeleteServerBinding(localFolder); err != nil {
			return err
		}

		all, err := binding.ListServerBindings(sess)
		if err != nil {
			return err
		}
		metrics.ServerBindingsTotal.Set(float64(len(all)))
		return nil
	})
}

func (c *Controller) deletePairStatesUnderRoot(sess *store.Session, localRoot string) error {
	pairs, err := sess.ListPairStatesUnderRoot(localRoot)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := sess.DeletePairState(p.ID); err != nil {
			return err
		}
	}
	return nil
}

// Stop signals the running sync worker to exit, per spec.md §4.6.
func (c *Controller) Stop() error {
	return stopbus.RequestStop(c.configFolder)
}

// Dispose closes the underlying Store.
func (c *Controller) Dispose() error {
	return c.store.Dispose()
}

// normalizeURL appends a trailing '/' if missing, per spec.md §6.
func normalizeURL(raw string) (string, error) {
	if raw == "" {
		return "", syncerr.New(syncerr.InvalidArgument, "server url is empty")
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}

// normalizePath expands a leading '~' and resolves to an absolute,
// cleaned path, per spec.md §6.
func normalizePath(raw string) (string, error) {
	if raw == "" {
		return "", syncerr.New(syncerr.InvalidArgument, "path is empty")
	}
	expanded := raw
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
		}
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", syncerr.Wrap(syncerr.InvalidArgument, err, "resolve path %s", raw)
	}
	return filepath.Clean(abs), nil
}

// safeFilename replaces path separators and ':' in a remote document
// name with '_' so it can be used as a local folder component.
func safeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(name)
}
