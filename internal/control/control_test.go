package control_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/control"
	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/remote/remotetest"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

const fakeServerURL = "https://fake.example.com/"

func newTestController(t *testing.T) *control.Controller {
	t.Helper()
	ctl, err := control.New(control.Config{ConfigFolder: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { ctl.Dispose() })
	return ctl
}

// withFake registers fake as the client minted for fakeServerURL on
// ctl's own factory, so BindServer/BindRoot exercise the real
// Controller plumbing end-to-end without a document server of any
// kind (spec.md §8's seed scenarios drive the Controller, not
// remote.Client, directly).
func withFake(ctl *control.Controller) *remotetest.Fake {
	fake := remotetest.New(fakeServerURL)
	ctl.Factory().Override(fakeServerURL, fake)
	return fake
}

func TestBindServer_Basic(t *testing.T) {
	ctl := newTestController(t)
	withFake(ctl)
	localFolder := t.TempDir()

	sb, err := ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)
	require.Equal(t, fakeServerURL, sb.ServerURL)
	require.NotNil(t, sb.RemoteToken)
	require.Nil(t, sb.RemotePassword)

	all, err := ctl.ListServerBindings()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestBindServer_IdempotentRebind(t *testing.T) {
	ctl := newTestController(t)
	withFake(ctl)
	localFolder := t.TempDir()

	_, err := ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)
	_, err = ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)

	all, err := ctl.ListServerBindings()
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = ctl.BindServer(localFolder, fakeServerURL, "bob", "p")
	require.True(t, syncerr.Is(err, syncerr.AlreadyBound))
}

func TestBindRoot_ThenUnbindRoot_IsIdentity(t *testing.T) {
	ctl := newTestController(t)
	fake := withFake(ctl)
	fake.Documents["/root"] = &remotetest.Document{UID: "root-uid", Name: "root", Folderish: true, Writable: true}
	localFolder := t.TempDir()

	_, err := ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)

	rb, err := ctl.BindRoot(localFolder, "default", "/root")
	require.NoError(t, err)
	require.True(t, fake.Registered["root-uid"], "root-aware server should register the new root remotely")

	roots, err := ctl.ListRootBindingsForServer(&types.ServerBinding{LocalFolder: localFolder})
	require.NoError(t, err)
	require.Len(t, roots, 1)

	require.NoError(t, ctl.UnbindRoot(rb.LocalRoot))
	require.False(t, fake.Registered["root-uid"])

	roots, err = ctl.ListRootBindingsForServer(&types.ServerBinding{LocalFolder: localFolder})
	require.NoError(t, err)
	require.Empty(t, roots)
}

func TestRealignRoots_AddsAndRemoves(t *testing.T) {
	ctl := newTestController(t)

	localFolder := t.TempDir()
	sb := &types.ServerBinding{LocalFolder: localFolder, ServerURL: "http://srv/nuxeo/", RemoteUser: "alice"}

	infoA := remote.RemoteInfo{UID: "A", Name: "A", Folderish: true}
	infoB := remote.RemoteInfo{UID: "B", Name: "B", Folderish: true}
	infoC := remote.RemoteInfo{UID: "C", Name: "C", Folderish: true}

	added, removed, err := ctl.RealignRoots(sb, "default", []remote.RemoteInfo{infoA, infoB})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"A", "B"}, added)
	require.Empty(t, removed)

	added, removed, err = ctl.RealignRoots(sb, "default", []remote.RemoteInfo{infoB, infoC})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"C"}, added)
	require.ElementsMatch(t, []string{"A"}, removed)

	roots, err := ctl.ListRootBindingsForServer(sb)
	require.NoError(t, err)
	uids := make([]string, 0, len(roots))
	for _, rb := range roots {
		uids = append(uids, rb.RemoteRoot)
	}
	require.ElementsMatch(t, []string{"B", "C"}, uids)
}

func TestRealignRoots_NoOpWhenUnchanged(t *testing.T) {
	ctl := newTestController(t)
	localFolder := t.TempDir()
	sb := &types.ServerBinding{LocalFolder: localFolder, ServerURL: "http://srv/nuxeo/", RemoteUser: "alice"}

	infos := []remote.RemoteInfo{{UID: "A", Name: "A", Folderish: true}}
	_, _, err := ctl.RealignRoots(sb, "default", infos)
	require.NoError(t, err)

	added, removed, err := ctl.RealignRoots(sb, "default", infos)
	require.NoError(t, err)
	require.Empty(t, added)
	require.Empty(t, removed)
}

func TestGetState_NoMatchingRootBinding(t *testing.T) {
	ctl := newTestController(t)

	p, err := ctl.GetState("http://srv/nuxeo/", "default", "nonexistent-ref")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestGetState_FindsPairUnderMatchingRoot(t *testing.T) {
	ctl := newTestController(t)
	fake := withFake(ctl)
	fake.Documents["/root"] = &remotetest.Document{UID: "root-uid", Name: "root", Folderish: true, Writable: true}
	localFolder := t.TempDir()

	_, err := ctl.BindServer(localFolder, fakeServerURL, "alice", "p")
	require.NoError(t, err)
	_, err = ctl.BindRoot(localFolder, "default", "/root")
	require.NoError(t, err)

	p, err := ctl.GetState(fakeServerURL, "default", "root-uid")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "root-uid", p.RemoteRef)

	miss, err := ctl.GetState(fakeServerURL, "other-repo", "root-uid")
	require.NoError(t, err)
	require.Nil(t, miss)
}
