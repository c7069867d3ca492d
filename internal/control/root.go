package control

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/metrics"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

// BindRoot registers remoteRoot (a folder in repository) as a synced
// root under localFolder's ServerBinding, per spec.md §4.4.
func (c *Controller) BindRoot(localFolder, repository, remoteRoot string) (*types.RootBinding, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.BindRootDuration)

	localFolder, err := normalizePath(localFolder)
	if err != nil {
		return nil, err
	}

	var result *types.RootBinding
	err = c.withSession(true, func(sess *store.Session, cache *remote.Cache) error {
		sb, err := binding.FindServerBinding(sess, localFolder)
		if err != nil {
			return err
		}

		client := cache.Get(sb, c.store.DeviceID(), localFolder, repository)

		info, err := client.GetInfo(remoteRoot, true)
		if err != nil {
			return err
		}
		if !info.Folderish {
			return syncerr.New(syncerr.NoSuchRemoteRoot, "%s is not a folder", remoteRoot)
		}

		writable, err := client.CheckWritable(remoteRoot)
		if err != nil {
			return err
		}
		if !writable {
			return syncerr.New(syncerr.NotWritable, "%s is not writable", remoteRoot)
		}

		rootAware, err := client.IsAddonInstalled()
		if err != nil {
			return err
		}
		if rootAware {
			ok, err := client.RegisterAsRoot(info.UID)
			if err != nil {
				return err
			}
			if !ok {
				return syncerr.New(syncerr.NoSuchRemoteRoot, "server declined to register %s as a root", remoteRoot)
			}
			log.Info().Str("remote_root", remoteRoot).Msg("root registered remotely")
		}

		rb, err := c.localBindRoot(sess, sb, repository, info)
		if err != nil {
			return err
		}
		result = rb
		return nil
	})
	return result, err
}

// localBindRoot is spec.md §4.4's `_local_bind_root`: it derives the
// local root path, creates it if absent, and is idempotent when a
// RootBinding already targets the same (repository, remote_uid).
func (c *Controller) localBindRoot(sess *store.Session, sb *types.ServerBinding, repository string, info *remote.RemoteInfo) (*types.RootBinding, error) {
	localRoot := filepath.Join(sb.LocalFolder, safeFilename(info.Name))

	existing, err := sess.GetRootBinding(localRoot)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.RemoteRepo == repository && existing.RemoteRoot == info.UID {
			return existing, nil
		}
		return nil, syncerr.New(syncerr.AlreadyBound, "%s is already bound to a different remote root", localRoot)
	}

	if err := os.MkdirAll(localRoot, 0755); err != nil {
		return nil, err
	}

	rb := &types.RootBinding{
		LocalRoot:       localRoot,
		ServerBindingID: sb.LocalFolder,
		RemoteRepo:      repository,
		RemoteRoot:      info.UID,
		CreatedAt:       time.Now(),
	}
	if err := sess.PutRootBinding(rb); err != nil {
		return nil, err
	}

	localState := types.SideSynchronized
	remoteState := types.SideSynchronized
	if !info.Folderish {
		// Force an initial download: a synchronized/modified pair
		// places the whole transfer on the synchronizer's next pass.
		remoteState = types.SideModified
	}
	pair := &types.PairRecord{
		LocalFolder:     sb.LocalFolder,
		LocalRoot:       localRoot,
		Path:            "/",
		LocalName:       filepath.Base(localRoot),
		RemoteRef:       info.UID,
		RemoteParentRef: info.ParentUID,
		RemoteName:      info.Name,
		RemotePath:      "/",
		Folderish:       info.Folderish,
		LocalState:      localState,
		RemoteState:     remoteState,
		PairState:       types.DerivePairState(localState, remoteState),
	}
	if err := sess.PutPairState(pair); err != nil {
		return nil, err
	}

	all, err := sess.ListRootBindings()
	if err != nil {
		return nil, err
	}
	metrics.RootBindingsTotal.Set(float64(len(all)))

	return rb, nil
}

// UnbindRoot removes localRoot's RootBinding. If the server is
// root-aware it is unregistered remotely first; pair states under the
// root cascade away either way.
func (c *Controller) UnbindRoot(localRoot string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.UnbindRootDuration)

	localRoot, err := normalizePath(localRoot)
	if err != nil {
		return err
	}

	return c.withSession(true, func(sess *store.Session, cache *remote.Cache) error {
		rb, err := binding.FindRootBinding(sess, localRoot)
		if err != nil {
			return err
		}
		sb, err := sess.GetServerBinding(rb.ServerBindingID)
		if err != nil {
			return err
		}
		if sb == nil {
			return syncerr.New(syncerr.NotFound, "server binding for %s is missing", rb.ServerBindingID)
		}

		client := cache.Get(sb, c.store.DeviceID(), sb.LocalFolder, rb.RemoteRepo)
		rootAware, err := client.IsAddonInstalled()
		if err != nil {
			return err
		}
		if rootAware {
			if err := client.UnregisterAsRoot(rb.RemoteRoot); err != nil {
				return err
			}
		}

		return c.localUnbindRoot(sess, rb)
	})
}

// localUnbindRoot deletes a RootBinding and every pair state beneath it.
func (c *Controller) localUnbindRoot(sess *store.Session, rb *types.RootBinding) error {
	if err := c.deletePairStatesUnderRoot(sess, rb.LocalRoot); err != nil {
		return err
	}
	if err := sess.DeleteRootBinding(rb.LocalRoot); err != nil {
		return err
	}

	all, err := sess.ListRootBindings()
	if err != nil {
		return err
	}
	metrics.RootBindingsTotal.Set(float64(len(all)))
	return nil
}
