package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { st.Dispose() })
	return st
}

func TestOpen_CreatesStableDeviceID(t *testing.T) {
	dir := t.TempDir()

	st1, err := store.Open(dir, false)
	require.NoError(t, err)
	id1 := st1.DeviceID()
	require.NotEmpty(t, id1)
	require.NoError(t, st1.Dispose())

	st2, err := store.Open(dir, false)
	require.NoError(t, err)
	defer st2.Dispose()
	require.Equal(t, id1, st2.DeviceID())
}

func TestServerBindingCRUD(t *testing.T) {
	st := openTestStore(t)

	sess, err := st.Session(true)
	require.NoError(t, err)
	sb := &types.ServerBinding{LocalFolder: "/sync", ServerURL: "https://example.com/", RemoteUser: "alice"}
	require.NoError(t, sess.PutServerBinding(sb))
	require.NoError(t, sess.Commit())

	sess, err = st.Session(false)
	require.NoError(t, err)
	got, err := sess.GetServerBinding("/sync")
	require.NoError(t, err)
	require.Equal(t, "alice", got.RemoteUser)
	require.NoError(t, sess.Rollback())

	sess, err = st.Session(true)
	require.NoError(t, err)
	require.NoError(t, sess.DeleteServerBinding("/sync"))
	require.NoError(t, sess.Commit())

	sess, err = st.Session(false)
	require.NoError(t, err)
	got, err = sess.GetServerBinding("/sync")
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, sess.Rollback())
}

func TestPutPairState_MintsIDAndBumpsVersion(t *testing.T) {
	st := openTestStore(t)

	sess, err := st.Session(true)
	require.NoError(t, err)
	p := &types.PairRecord{Path: "/a", RemotePath: "/a"}
	require.NoError(t, sess.PutPairState(p))
	require.NotEmpty(t, p.ID)
	require.EqualValues(t, 1, p.VersionTag)

	id := p.ID
	require.NoError(t, sess.PutPairState(p))
	require.Equal(t, id, p.ID)
	require.EqualValues(t, 2, p.VersionTag)
	require.NoError(t, sess.Commit())
}

func TestListPending_Ordering(t *testing.T) {
	st := openTestStore(t)

	sess, err := st.Session(true)
	require.NoError(t, err)

	paths := []string{"/a/b", "/a", "/a/b/c"}
	for _, p := range paths {
		require.NoError(t, sess.PutPairState(&types.PairRecord{
			Path:       p,
			RemotePath: p,
			PairState:  types.StateLocallyModified,
		}))
	}
	require.NoError(t, sess.Commit())

	sess, err = st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	pending, err := sess.ListPending(0, "", 0, time.Now())
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, []string{pending[0].Path, pending[1].Path, pending[2].Path})
}

func TestListPending_ErrorCooldown(t *testing.T) {
	st := openTestStore(t)

	now := time.Now()
	errorAt := now.Add(-5 * time.Second)

	sess, err := st.Session(true)
	require.NoError(t, err)
	require.NoError(t, sess.PutPairState(&types.PairRecord{
		Path:              "/errored",
		RemotePath:        "/errored",
		PairState:         types.StateConflicted,
		LastSyncErrorDate: &errorAt,
	}))
	require.NoError(t, sess.Commit())

	sess, err = st.Session(false)
	require.NoError(t, err)
	excluded, err := sess.ListPending(0, "", 10, now)
	require.NoError(t, err)
	require.Empty(t, excluded)
	require.NoError(t, sess.Rollback())

	sess, err = st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()
	included, err := sess.ListPending(0, "", 1, now)
	require.NoError(t, err)
	require.Len(t, included, 1)
}

func TestSession_RequireWritable(t *testing.T) {
	st := openTestStore(t)

	sess, err := st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	err = sess.PutServerBinding(&types.ServerBinding{LocalFolder: "/x"})
	require.Error(t, err)
}
