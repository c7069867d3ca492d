package align_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/align"
	"github.com/cuemby/syncctl/internal/control"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/remote/remotetest"
	"github.com/cuemby/syncctl/internal/types"
)

const fakeServerURL = "https://fake.example.com/"

// fakeLister is an align.RootLister that reports a fixed remote-root
// list for every ServerBinding.
type fakeLister struct {
	mu    sync.Mutex
	roots []remote.RemoteInfo
}

func (f *fakeLister) set(roots []remote.RemoteInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roots = roots
}

func (f *fakeLister) ListRemoteRoots(sb *types.ServerBinding, repository string) ([]remote.RemoteInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roots, nil
}

func TestAligner_AlignAll_AddsAndRemovesRoots(t *testing.T) {
	ctl, err := control.New(control.Config{ConfigFolder: t.TempDir()})
	require.NoError(t, err)
	defer ctl.Dispose()

	fake := remotetest.New(fakeServerURL)
	fake.Documents["/root"] = &remotetest.Document{UID: "root-uid", Name: "root", Folderish: true, Writable: true}
	ctl.Factory().Override(fakeServerURL, fake)

	localFolder := t.TempDir()
	_, err = ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)

	// AlignAll discovers repositories from RootBindings already on
	// record, so seed one through the normal BindRoot path before the
	// aligner has anything to reconcile.
	_, err = ctl.BindRoot(localFolder, "default", "/root")
	require.NoError(t, err)

	lister := &fakeLister{roots: []remote.RemoteInfo{
		{UID: "root-uid", Name: "root", Folderish: true},
		{UID: "other-uid", Name: "other", Folderish: true},
	}}
	aligner := align.NewAligner(ctl, lister)

	require.NoError(t, aligner.AlignAll())

	sb := &types.ServerBinding{LocalFolder: localFolder}
	roots, err := ctl.ListRootBindingsForServer(sb)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	lister.set([]remote.RemoteInfo{{UID: "other-uid", Name: "other", Folderish: true}})
	require.NoError(t, aligner.AlignAll())

	roots, err = ctl.ListRootBindingsForServer(sb)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, "other-uid", roots[0].RemoteRoot)
}

func TestAligner_StartStop(t *testing.T) {
	ctl, err := control.New(control.Config{ConfigFolder: t.TempDir()})
	require.NoError(t, err)
	defer ctl.Dispose()

	lister := &fakeLister{}
	aligner := align.NewAligner(ctl, lister)
	aligner.Start(10 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	aligner.Stop()
}
