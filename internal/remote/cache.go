package remote

import (
	"sync"

	"github.com/cuemby/syncctl/internal/types"
)

// cacheKey identifies a memoized client, per spec.md §4.3:
// (server_url, user, device_id, base_folder, repository).
type cacheKey struct {
	serverURL  string
	user       string
	deviceID   string
	baseFolder string
	repository string
}

// ClientFactory mints Clients and, optionally, carries a sticky fault
// that every client it mints from that point on will raise on its next
// call. This is spec.md §9's re-expression of make_raise as a
// constructor-injected port rather than a package-level global: each
// Controller owns its own factory instance, shared by all of its calls,
// instead of sharing process-wide mutable state.
type ClientFactory struct {
	mu        sync.RWMutex
	fault     error
	overrides map[string]Client
}

// NewClientFactory returns a factory with no injected fault.
func NewClientFactory() *ClientFactory {
	return &ClientFactory{}
}

// Override installs client as the Client minted for serverURL, bypassing
// the normal HTTP construction entirely. Intended for tests wiring a
// scriptable double (e.g. remotetest.Fake) into a real Controller
// without standing up a server of any kind.
func (f *ClientFactory) Override(serverURL string, client Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.overrides == nil {
		f.overrides = make(map[string]Client)
	}
	f.overrides[serverURL] = client
}

// SetFault installs a sticky error that every client minted after this
// call will return from its next network operation. Passing nil clears
// it. Intended for tests exercising the Controller's failure paths
// without a real server.
func (f *ClientFactory) SetFault(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fault = err
}

func (f *ClientFactory) currentFault() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fault
}

// New constructs a Client for the given ServerBinding, scoped to
// repository, preferring a persisted token over a password exactly as
// spec.md §4.3 describes.
func (f *ClientFactory) New(sb *types.ServerBinding, deviceID, repository string) Client {
	f.mu.RLock()
	override, overridden := f.overrides[sb.ServerURL]
	f.mu.RUnlock()

	var client Client
	if overridden {
		client = override
	} else {
		var token, password string
		if sb.RemoteToken != nil {
			token = *sb.RemoteToken
		} else if sb.RemotePassword != nil {
			password = *sb.RemotePassword
		}
		client = NewHTTPClient(sb.ServerURL, sb.RemoteUser, deviceID, repository, token, password)
	}
	if fault := f.currentFault(); fault != nil {
		return &faultyClient{Client: client, fault: fault}
	}
	return client
}

// faultyClient wraps a real Client and raises the injected fault from
// every call instead of reaching the network, so a raised
// InjectedError behaves identically to the real counterpart it
// simulates (spec.md §7).
type faultyClient struct {
	Client
	fault error
}

func (f *faultyClient) RequestToken() (string, error)             { return "", f.fault }
func (f *faultyClient) RevokeToken() error                        { return f.fault }
func (f *faultyClient) GetInfo(string, bool) (*RemoteInfo, error)  { return nil, f.fault }
func (f *faultyClient) CheckWritable(string) (bool, error)         { return false, f.fault }
func (f *faultyClient) IsAddonInstalled() (bool, error)            { return false, f.fault }
func (f *faultyClient) RegisterAsRoot(string) (bool, error)        { return false, f.fault }
func (f *faultyClient) UnregisterAsRoot(string) error              { return f.fault }

// Cache is a per-execution-context memoization of Clients. One Cache
// instance belongs to exactly one goroutine or task for its lifetime;
// callers never share a Cache across concurrent contexts (spec.md §5).
type Cache struct {
	factory *ClientFactory
	mu      sync.RWMutex
	clients map[cacheKey]Client
}

// NewCache returns an empty cache backed by factory.
func NewCache(factory *ClientFactory) *Cache {
	return &Cache{factory: factory, clients: make(map[cacheKey]Client)}
}

// Get returns the memoized client for sb/deviceID/baseFolder/repository,
// minting and storing one on a miss.
func (c *Cache) Get(sb *types.ServerBinding, deviceID, baseFolder, repository string) Client {
	key := cacheKey{
		serverURL:  sb.ServerURL,
		user:       sb.RemoteUser,
		deviceID:   deviceID,
		baseFolder: baseFolder,
		repository: repository,
	}

	c.mu.RLock()
	client, ok := c.clients[key]
	c.mu.RUnlock()
	if ok {
		return client
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[key]; ok {
		return client
	}
	client = c.factory.New(sb, deviceID, repository)
	c.clients[key] = client
	return client
}

// Invalidate evicts every cached client reporting serverURL, per
// spec.md §4.3.
func (c *Cache) Invalidate(serverURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, client := range c.clients {
		if client.ServerURL() == serverURL {
			delete(c.clients, key)
		}
	}
}
