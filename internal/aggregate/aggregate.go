// Package aggregate implements the control core's pair-state
// aggregator (component C7): recursive descendant-status
// summarization for UI folder listings.
package aggregate

import (
	"path/filepath"
	"sort"

	"github.com/cuemby/syncctl/internal/binding"
	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

// AggregateState is a ChildState's reported status: either the pair's
// own literal PairState (for a non-folderish entry, or a folderish one
// whose descendants are all synchronized or that has none) or the
// sentinel "children_modified" once any descendant is found
// unsynchronized.
type AggregateState string

const ChildrenModified AggregateState = "children_modified"

// ChildState is one row of a children_states listing.
type ChildState struct {
	Name  string
	State AggregateState
}

// ChildrenStates produces the UI listing for folderPath, per
// spec.md §4.7:
//   - If folderPath is a ServerBinding's local_folder, one entry per
//     RootBinding under it, each synchronized iff every one of its own
//     descendants is synchronized.
//   - Otherwise folderPath is resolved through the binding registry and
//     the direct children of that root-relative path are returned.
func ChildrenStates(sess *store.Session, folderPath string) ([]ChildState, error) {
	sb, err := sess.GetServerBinding(folderPath)
	if err != nil {
		return nil, err
	}
	if sb != nil {
		return serverBindingChildren(sess, folderPath)
	}

	rb, relPath, err := binding.ResolvePath(sess, folderPath)
	if err != nil {
		if syncerr.Is(err, syncerr.NotFound) {
			return nil, nil
		}
		return nil, err
	}

	folderState, err := sess.FindPairStateByPath(rb.LocalRoot, relPath)
	if err != nil {
		return nil, err
	}
	if folderState == nil {
		return nil, nil
	}

	entries, err := pairStatesRecursive(sess, rb.LocalRoot, folderState)
	if err != nil {
		return nil, err
	}

	var out []ChildState
	for _, e := range entries {
		if e.pair.ParentPath == relPath {
			out = append(out, ChildState{Name: e.pair.LocalName, State: e.state})
		}
	}
	return out, nil
}

// serverBindingChildren lists one entry per RootBinding under a
// ServerBinding's local_folder.
func serverBindingChildren(sess *store.Session, localFolder string) ([]ChildState, error) {
	roots, err := binding.ListRootBindings(sess, localFolder)
	if err != nil {
		return nil, err
	}

	var out []ChildState
	for _, rb := range roots {
		descendants, err := ChildrenStates(sess, rb.LocalRoot)
		if err != nil {
			return nil, err
		}
		rootState := AggregateState(types.StateSynchronized)
		for _, d := range descendants {
			if d.State != AggregateState(types.StateSynchronized) {
				rootState = ChildrenModified
				break
			}
		}
		out = append(out, ChildState{Name: filepath.Base(rb.LocalRoot), State: rootState})
	}
	return out, nil
}

// recEntry pairs a pair record with its aggregated state, mirroring
// the source's (doc_pair, pair_state) tuples.
type recEntry struct {
	pair  *types.PairRecord
	state AggregateState
}

// pairStatesRecursive collects doc's own aggregated state followed by
// every descendant's, depth-first. A folder's state is its own
// PairState unless some descendant is not synchronized, in which case
// it becomes ChildrenModified — the full descendant set is consulted,
// not just the first one (the source's single-iteration loop defeats
// this; this implementation examines every collected descendant
// before deciding).
func pairStatesRecursive(sess *store.Session, localRoot string, doc *types.PairRecord) ([]recEntry, error) {
	if !doc.Folderish {
		return []recEntry{{pair: doc, state: AggregateState(doc.PairState)}}, nil
	}

	children, err := directChildren(sess, localRoot, doc)
	if err != nil {
		return nil, err
	}

	var descendants []recEntry
	for _, child := range children {
		sub, err := pairStatesRecursive(sess, localRoot, child)
		if err != nil {
			return nil, err
		}
		descendants = append(descendants, sub...)
	}

	state := AggregateState(doc.PairState)
	for _, d := range descendants {
		if d.state != AggregateState(types.StateSynchronized) {
			state = ChildrenModified
			break
		}
	}

	return append([]recEntry{{pair: doc, state: state}}, descendants...), nil
}

// directChildren selects doc's direct descendants: if both Path and
// RemoteRef are known, the OR of parent_path==path and
// remote_parent_ref==remote_ref (catches moves on either side);
// otherwise whichever side is known. Ordered ascending by
// (local_name, remote_name).
func directChildren(sess *store.Session, localRoot string, doc *types.PairRecord) ([]*types.PairRecord, error) {
	all, err := sess.ListPairStatesUnderRoot(localRoot)
	if err != nil {
		return nil, err
	}

	hasPath := doc.Path != ""
	hasRemote := doc.RemoteRef != ""

	var out []*types.PairRecord
	for _, p := range all {
		matchPath := hasPath && p.ParentPath == doc.Path
		matchRemote := hasRemote && p.RemoteParentRef == doc.RemoteRef
		switch {
		case hasPath && hasRemote:
			if matchPath || matchRemote {
				out = append(out, p)
			}
		case hasPath:
			if matchPath {
				out = append(out, p)
			}
		case hasRemote:
			if matchRemote {
				out = append(out, p)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LocalName != out[j].LocalName {
			return out[i].LocalName < out[j].LocalName
		}
		return out[i].RemoteName < out[j].RemoteName
	})
	return out, nil
}
