package control

import (
	"time"

	"github.com/cuemby/syncctl/internal/aggregate"
	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/metrics"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

// ListPending returns up to limit pair states not yet synchronized,
// ordered ascending by (path, remote_path), optionally filtered to
// localFolder and to pairs outside their error cooldown window.
func (c *Controller) ListPending(limit int, localFolder string, ignoreInErrorSeconds int) ([]*types.PairRecord, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ListPendingDuration)

	var results []*types.PairRecord
	err := c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		pending, err := sess.ListPending(limit, localFolder, ignoreInErrorSeconds, time.Now())
		if err != nil {
			return err
		}
		results = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PendingPairsTotal.Set(float64(len(results)))
	return results, nil
}

// NextPending is a convenience wrapper returning at most one pending
// pair state, using the same ordering as ListPending.
func (c *Controller) NextPending(localFolder string) (*types.PairRecord, error) {
	results, err := c.ListPending(1, localFolder, 0)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// GetState returns the pair state keyed by (local_root, remote_ref) for
// whichever RootBinding matches (serverURL, repo). A remote_ref may
// legitimately exist under multiple roots; the (server, repo) pair
// disambiguates which root's pair to return. Returns nil, nil (not an
// error) when remoteRef is known but no root binding matches, per
// spec.md's Open Question resolution.
func (c *Controller) GetState(serverURL, repo, remoteRef string) (*types.PairRecord, error) {
	serverURL, err := normalizeURL(serverURL)
	if err != nil {
		return nil, err
	}

	var result *types.PairRecord
	err = c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		roots, err := sess.ListRootBindings()
		if err != nil {
			return err
		}
		for _, rb := range roots {
			if rb.RemoteRepo != repo {
				continue
			}
			sb, err := sess.GetServerBinding(rb.ServerBindingID)
			if err != nil {
				return err
			}
			if sb == nil || sb.ServerURL != serverURL {
				continue
			}
			p, err := sess.FindPairStateByRemote(rb.LocalRoot, remoteRef)
			if err != nil {
				return err
			}
			if p != nil {
				result = p
				return nil
			}
		}
		return nil
	})
	return result, err
}

// GetStateForLocalPath resolves absPath through the binding registry
// and returns the pair state recorded at that (local_root, path).
func (c *Controller) GetStateForLocalPath(absPath string) (*types.PairRecord, error) {
	absPath, err := normalizePath(absPath)
	if err != nil {
		return nil, err
	}

	var result *types.PairRecord
	err = c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		rb, relPath, err := binding.ResolvePath(sess, absPath)
		if err != nil {
			return err
		}
		p, err := sess.FindPairStateByPath(rb.LocalRoot, relPath)
		if err != nil {
			return err
		}
		if p == nil {
			return syncerr.New(syncerr.NotFound, "no pair state at %s", absPath)
		}
		result = p
		return nil
	})
	return result, err
}

// ChildrenStates delegates to the pair-state aggregator (C7) for the
// UI's folder listing.
func (c *Controller) ChildrenStates(folderPath string) ([]aggregate.ChildState, error) {
	folderPath, err := normalizePath(folderPath)
	if err != nil {
		return nil, err
	}

	var result []aggregate.ChildState
	err = c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		children, err := aggregate.ChildrenStates(sess, folderPath)
		if err != nil {
			return err
		}
		result = children
		return nil
	})
	return result, err
}
