// Package types defines the persistent data model of the synchronization
// control core: device identity, server and root bindings, and the pair
// state that unifies a document's local and remote incarnations.
package types

import "time"

// DeviceConfig is the singleton configuration record created on first
// Store open. It is never deleted.
type DeviceConfig struct {
	DeviceID string
}

// ServerBinding associates a local folder with a remote document server
// account. Exactly one of RemotePassword or RemoteToken is set.
type ServerBinding struct {
	LocalFolder    string // absolute, normalized; primary key
	ServerURL      string // normalized, trailing '/'
	RemoteUser     string
	RemotePassword *string
	RemoteToken    *string
	CreatedAt      time.Time
}

// RootBinding associates a local root folder under a ServerBinding with
// a remote folderish document.
type RootBinding struct {
	LocalRoot         string // absolute, normalized; primary key
	ServerBindingID   string // foreign key: ServerBinding.LocalFolder
	RemoteRepo        string
	RemoteRoot        string // remote document UID
	CreatedAt         time.Time
}

// PairState is the derived combined status of a document pair.
type PairState string

const (
	StateSynchronized    PairState = "synchronized"
	StateLocallyModified PairState = "locally_modified"
	StateRemotelyModified PairState = "remotely_modified"
	StateConflicted      PairState = "conflicted"
	StateLocallyCreated  PairState = "locally_created"
	StateRemotelyCreated PairState = "remotely_created"
	StateLocallyDeleted  PairState = "locally_deleted"
	StateRemotelyDeleted PairState = "remotely_deleted"
	StateUnknown         PairState = "unknown"
)

// SideState is the per-side synchronization state (local_state / remote_state
// in spec.md's vocabulary) that pair_state is derived from.
type SideState string

const (
	SideSynchronized SideState = "synchronized"
	SideModified     SideState = "modified"
	SideCreated      SideState = "created"
	SideDeleted      SideState = "deleted"
	SideUnknown      SideState = "unknown"
)

// PairRecord is the Go name for spec.md's LastKnownState: one record per
// logical document, unifying its local and remote views.
//
// Invariant: at least one of Path or RemoteRef is non-empty at all times.
type PairRecord struct {
	// ID is the Store's internal primary key (a UUID minted at creation).
	// It is stable across renames and moves, unlike Path or RemoteRef,
	// which is why the Store indexes on it rather than on either key
	// attribute directly.
	ID              string
	LocalFolder     string
	LocalRoot       string
	Path            string // root-relative, '/'-separated, leading '/'
	ParentPath      string
	LocalName       string
	RemoteRef       string
	RemoteParentRef string
	RemoteName      string
	RemotePath      string
	Folderish       bool
	LocalState      SideState
	RemoteState     SideState
	PairState       PairState
	LastSyncErrorDate *time.Time
	// VersionTag is bumped by Store.PutPairState on every write. Nothing
	// in this module compares it, and it is never sent to scanners.
	VersionTag int64
}

// DerivePairState combines LocalState and RemoteState into the overall
// PairState, following the same precedence the synchronizer relies on
// when deciding what to do next. The control core only computes this
// once, at record-creation time; subsequent transitions are owned by
// the synchronizer and simply written back through the Store.
func DerivePairState(local, remote SideState) PairState {
	switch {
	case local == SideSynchronized && remote == SideSynchronized:
		return StateSynchronized
	case local == SideCreated && remote == SideUnknown:
		return StateLocallyCreated
	case local == SideUnknown && remote == SideCreated:
		return StateRemotelyCreated
	case local == SideModified && remote == SideSynchronized:
		return StateLocallyModified
	case local == SideSynchronized && remote == SideModified:
		return StateRemotelyModified
	case local == SideModified && remote == SideModified:
		return StateConflicted
	case local == SideDeleted && remote != SideDeleted:
		return StateLocallyDeleted
	case remote == SideDeleted && local != SideDeleted:
		return StateRemotelyDeleted
	default:
		return StateUnknown
	}
}
