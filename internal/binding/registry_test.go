package binding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir(), false)
	require.NoError(t, err)
	t.Cleanup(func() { st.Dispose() })
	return st
}

func putRoot(t *testing.T, st *store.Store, localRoot, serverBindingID string) {
	t.Helper()
	sess, err := st.Session(true)
	require.NoError(t, err)
	require.NoError(t, sess.PutRootBinding(&types.RootBinding{
		LocalRoot:       localRoot,
		ServerBindingID: serverBindingID,
		RemoteRepo:      "default",
		RemoteRoot:      "uid-" + localRoot,
	}))
	require.NoError(t, sess.Commit())
}

func TestResolvePath_ExactMatch(t *testing.T) {
	st := openTestStore(t)
	putRoot(t, st, "/home/user/sync/a", "/home/user/sync")

	sess, err := st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	rb, relPath, err := binding.ResolvePath(sess, "/home/user/sync/a")
	require.NoError(t, err)
	require.Equal(t, "/home/user/sync/a", rb.LocalRoot)
	require.Equal(t, "/", relPath)
}

func TestResolvePath_PrefixMatch(t *testing.T) {
	st := openTestStore(t)
	putRoot(t, st, "/home/user/sync/a", "/home/user/sync")

	sess, err := st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	rb, relPath, err := binding.ResolvePath(sess, "/home/user/sync/a/docs/report.txt")
	require.NoError(t, err)
	require.Equal(t, "/home/user/sync/a", rb.LocalRoot)
	require.Equal(t, "/docs/report.txt", relPath)
}

func TestResolvePath_NotFound(t *testing.T) {
	st := openTestStore(t)
	putRoot(t, st, "/home/user/sync/a", "/home/user/sync")

	sess, err := st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	_, _, err = binding.ResolvePath(sess, "/elsewhere/file.txt")
	require.True(t, syncerr.Is(err, syncerr.NotFound))
}

func TestResolvePath_Ambiguous(t *testing.T) {
	st := openTestStore(t)
	putRoot(t, st, "/home/user/sync/a", "/home/user/sync")
	putRoot(t, st, "/home/user/sync/a/nested", "/home/user/sync")

	sess, err := st.Session(false)
	require.NoError(t, err)
	defer sess.Rollback()

	_, _, err = binding.ResolvePath(sess, "/home/user/sync/a/nested/file.txt")
	require.True(t, syncerr.Is(err, syncerr.Ambiguous))
}

func TestUnderRoot(t *testing.T) {
	require.True(t, binding.UnderRoot("/home/user/sync", "/home/user/sync/a"))
	require.False(t, binding.UnderRoot("/home/user/sync", "/home/user/sync"))
	require.False(t, binding.UnderRoot("/home/user/sync", "/home/other"))
}
