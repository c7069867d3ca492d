package remote_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/syncctl/internal/remote"
	"github.com/cuemby/syncctl/internal/types"
)

func TestClientFactory_SetFault(t *testing.T) {
	factory := remote.NewClientFactory()
	sb := &types.ServerBinding{ServerURL: "https://example.com/", RemoteUser: "alice"}

	client := factory.New(sb, "device-1", "default")
	_, err := client.RequestToken()
	require.Error(t, err)

	boom := errors.New("boom")
	factory.SetFault(boom)
	faulty := factory.New(sb, "device-1", "default")
	_, err = faulty.RequestToken()
	require.Equal(t, boom, err)

	_, err = faulty.GetInfo("/a", false)
	require.Equal(t, boom, err)
	require.Error(t, faulty.RevokeToken())

	factory.SetFault(nil)
	clean := factory.New(sb, "device-1", "default")
	_, err = clean.RequestToken()
	require.Error(t, err)
	require.NotEqual(t, boom, err)
}

func TestCache_GetMemoizesByKey(t *testing.T) {
	factory := remote.NewClientFactory()
	cache := remote.NewCache(factory)
	sb := &types.ServerBinding{ServerURL: "https://example.com/", RemoteUser: "alice"}

	c1 := cache.Get(sb, "device-1", "/local", "default")
	c2 := cache.Get(sb, "device-1", "/local", "default")
	require.Same(t, c1, c2)

	c3 := cache.Get(sb, "device-1", "/local", "other-repo")
	require.NotSame(t, c1, c3)
}

func TestCache_Invalidate(t *testing.T) {
	factory := remote.NewClientFactory()
	cache := remote.NewCache(factory)
	sb := &types.ServerBinding{ServerURL: "https://example.com/", RemoteUser: "alice"}

	c1 := cache.Get(sb, "device-1", "/local", "default")
	cache.Invalidate("https://example.com/")
	c2 := cache.Get(sb, "device-1", "/local", "default")
	require.NotSame(t, c1, c2)
}
