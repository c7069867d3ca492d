// Package align implements the control core's root-alignment loop
// (component C5): periodically reconciling the roots tracked locally
// against the set advertised by each bound server, invoked by the
// external synchronizer when it discovers drift.
package align

import (
	"sync"
	"time"

	"github.com/cuemby/syncctl/internal/control"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/synclog"
	"github.com/cuemby/syncctl/internal/types"
)

var log = synclog.WithComponent("align")

// RootLister is consulted for the remote roots currently advertised
// for a ServerBinding's repository. It is the boundary to the remote
// client the aligner does not own.
type RootLister interface {
	ListRemoteRoots(sb *types.ServerBinding, repository string) ([]remote.RemoteInfo, error)
}

// Aligner periodically realigns every bound server's roots, mirroring
// the teacher's reconciler loop: a ticker goroutine guarded by a
// stop channel.
type Aligner struct {
	controller *control.Controller
	lister     RootLister

	mu     sync.Mutex
	stopCh chan struct{}
}

// NewAligner returns an Aligner driving controller with roots
// discovered through lister.
func NewAligner(controller *control.Controller, lister RootLister) *Aligner {
	return &Aligner{controller: controller, lister: lister, stopCh: make(chan struct{})}
}

// Start begins the alignment loop at the given interval.
func (a *Aligner) Start(interval time.Duration) {
	go a.run(interval)
}

// Stop ends the alignment loop.
func (a *Aligner) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
}

func (a *Aligner) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("root alignment loop started")

	for {
		select {
		case <-ticker.C:
			if err := a.AlignAll(); err != nil {
				log.Error().Err(err).Msg("root alignment cycle failed")
			}
		case <-a.stopCh:
			log.Info().Msg("root alignment loop stopped")
			return
		}
	}
}

// AlignAll realigns every server binding, grouping its existing roots
// by repository and realigning each group against the remote list.
func (a *Aligner) AlignAll() error {
	servers, err := a.controller.ListServerBindings()
	if err != nil {
		return err
	}

	for _, sb := range servers {
		roots, err := a.controller.ListRootBindingsForServer(sb)
		if err != nil {
			return err
		}

		repositories := make(map[string]struct{})
		for _, rb := range roots {
			repositories[rb.RemoteRepo] = struct{}{}
		}

		for repository := range repositories {
			if err := a.alignOne(sb, repository); err != nil {
				log.Error().Err(err).Str("local_folder", sb.LocalFolder).Str("repository", repository).Msg("failed to realign repository")
			}
		}
	}
	return nil
}

func (a *Aligner) alignOne(sb *types.ServerBinding, repository string) error {
	remotes, err := a.lister.ListRemoteRoots(sb, repository)
	if err != nil {
		return err
	}
	added, removed, err := a.controller.RealignRoots(sb, repository, remotes)
	if err != nil {
		return err
	}
	if len(added) > 0 || len(removed) > 0 {
		log.Info().Strs("added", added).Strs("removed", removed).Str("local_folder", sb.LocalFolder).Msg("roots realigned")
	}
	return nil
}
