// Package remotetest provides an in-memory double for remote.Client,
// standing in for the Python source's test RemoteDocumentClient so
// control-plane tests never need a real document server.
package remotetest

import (
	"fmt"
	"sync"

	"github.com/cuemby/syncctl/internal/remote"
)

// Document is a fake remote document tracked by Fake.
type Document struct {
	UID       string
	Name      string
	Folderish bool
	ParentUID string
	Writable  bool
}

// Fake is a scriptable remote.Client. Tests populate Documents
// directly; Registered tracks RegisterAsRoot/UnregisterAsRoot calls
// for assertions.
type Fake struct {
	mu sync.Mutex

	serverURL    string
	Token        string
	AddonInstalled bool
	Documents    map[string]*Document // keyed by path
	Registered   map[string]bool      // keyed by uid

	RevokedTokens []string
}

// New returns a Fake bound to serverURL with no documents registered.
func New(serverURL string) *Fake {
	return &Fake{
		serverURL:      serverURL,
		AddonInstalled: true,
		Documents:      make(map[string]*Document),
		Registered:     make(map[string]bool),
	}
}

var _ remote.Client = (*Fake)(nil)

func (f *Fake) ServerURL() string { return f.serverURL }

func (f *Fake) RequestToken() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Token == "" {
		f.Token = fmt.Sprintf("fake-token-%d", len(f.RevokedTokens)+1)
	}
	return f.Token, nil
}

func (f *Fake) RevokeToken() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RevokedTokens = append(f.RevokedTokens, f.Token)
	f.Token = ""
	return nil
}

func (f *Fake) GetInfo(path string, fetchParentUID bool) (*remote.RemoteInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.Documents[path]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", path)
	}
	info := &remote.RemoteInfo{UID: doc.UID, Name: doc.Name, Folderish: doc.Folderish}
	if fetchParentUID {
		info.ParentUID = doc.ParentUID
	}
	return info, nil
}

func (f *Fake) CheckWritable(path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.Documents[path]
	if !ok {
		return false, fmt.Errorf("no such document: %s", path)
	}
	return doc.Writable, nil
}

func (f *Fake) IsAddonInstalled() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AddonInstalled, nil
}

func (f *Fake) RegisterAsRoot(uid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Registered[uid] = true
	return true, nil
}

func (f *Fake) UnregisterAsRoot(uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Registered, uid)
	return nil
}
