package control

import (
	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/metrics"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/types"
)

// RealignRoots implements spec.md §4.5's set-difference algorithm for
// a single (ServerBinding, repository) pair: roots no longer advertised
// remotely are unbound locally, roots advertised remotely but not yet
// tracked locally are bound. Running it twice with the same remotes
// produces no additional mutations.
func (c *Controller) RealignRoots(sb *types.ServerBinding, repository string, remotes []remote.RemoteInfo) (added, removed []string, err error) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.AlignmentDuration)
		metrics.AlignmentCyclesTotal.Inc()
	}()

	err = c.withSession(true, func(sess *store.Session, cache *remote.Cache) error {
		locals, lerr := binding.ListRootBindings(sess, sb.LocalFolder)
		if lerr != nil {
			return lerr
		}

		localByUID := make(map[string]*types.RootBinding)
		for _, rb := range locals {
			if rb.RemoteRepo == repository {
				localByUID[rb.RemoteRoot] = rb
			}
		}

		remoteByUID := make(map[string]remote.RemoteInfo)
		for _, info := range remotes {
			remoteByUID[info.UID] = info
		}

		for uid, rb := range localByUID {
			if _, stillRemote := remoteByUID[uid]; !stillRemote {
				if err := c.localUnbindRoot(sess, rb); err != nil {
					return err
				}
				removed = append(removed, uid)
			}
		}

		for uid, info := range remoteByUID {
			if _, alreadyLocal := localByUID[uid]; !alreadyLocal {
				infoCopy := info
				if _, err := c.localBindRoot(sess, sb, repository, &infoCopy); err != nil {
					return err
				}
				added = append(added, uid)
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.RootsAddedTotal.Add(float64(len(added)))
	metrics.RootsRemovedTotal.Add(float64(len(removed)))
	return added, removed, nil
}

// ListServerBindings returns every known ServerBinding.
func (c *Controller) ListServerBindings() ([]*types.ServerBinding, error) {
	var out []*types.ServerBinding
	err := c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		all, err := binding.ListServerBindings(sess)
		if err != nil {
			return err
		}
		out = all
		return nil
	})
	return out, err
}

// ListRootBindingsForServer returns the roots registered under sb.
func (c *Controller) ListRootBindingsForServer(sb *types.ServerBinding) ([]*types.RootBinding, error) {
	var out []*types.RootBinding
	err := c.withSession(false, func(sess *store.Session, _ *remote.Cache) error {
		all, err := binding.ListRootBindings(sess, sb.LocalFolder)
		if err != nil {
			return err
		}
		out = all
		return nil
	})
	return out, err
}
