// Package binding implements the control core's binding registry
// (component C2): the Server → Root → Pair hierarchy and the
// path-resolution algorithm that the Controller and aggregator both
// depend on. It holds no state of its own — every query runs against
// an open store.Session.
package binding

import (
	"path/filepath"
	"strings"

	"github.com/cuemby/syncctl/internal/store"
	"github.com/cuemby/syncctl/internal/syncerr"
	"github.com/cuemby/syncctl/internal/types"
)

// FindServerBinding returns the ServerBinding for localFolder, or a
// NotFound error if none is bound there.
func FindServerBinding(sess *store.Session, localFolder string) (*types.ServerBinding, error) {
	sb, err := sess.GetServerBinding(localFolder)
	if err != nil {
		return nil, err
	}
	if sb == nil {
		return nil, syncerr.New(syncerr.NotFound, "no server binding for %s", localFolder)
	}
	return sb, nil
}

// FindRootBinding returns the RootBinding for localRoot, or a NotFound
// error if none is bound there.
func FindRootBinding(sess *store.Session, localRoot string) (*types.RootBinding, error) {
	rb, err := sess.GetRootBinding(localRoot)
	if err != nil {
		return nil, err
	}
	if rb == nil {
		return nil, syncerr.New(syncerr.NotFound, "no root binding for %s", localRoot)
	}
	return rb, nil
}

// ListServerBindings returns every known ServerBinding.
func ListServerBindings(sess *store.Session) ([]*types.ServerBinding, error) {
	return sess.ListServerBindings()
}

// ListRootBindings returns the roots registered under a ServerBinding,
// identified by its local_folder.
func ListRootBindings(sess *store.Session, serverBindingLocalFolder string) ([]*types.RootBinding, error) {
	return sess.ListRootBindingsByServer(serverBindingLocalFolder)
}

// ResolvePath implements spec.md §4.2's resolve_path: normalizes
// absPath, tries an exact match against a RootBinding's local_root
// first, then selects roots whose local_root is a path-prefix of
// absPath. Exactly one match is required; zero is NotFound, more than
// one is Ambiguous (fatal — it indicates two RootBindings overlap;
// PutRootBinding itself does not check for overlap).
func ResolvePath(sess *store.Session, absPath string) (*types.RootBinding, string, error) {
	normalized := filepath.Clean(absPath)

	roots, err := sess.ListRootBindings()
	if err != nil {
		return nil, "", err
	}

	for _, rb := range roots {
		if rb.LocalRoot == normalized {
			return rb, "/", nil
		}
	}

	var matches []*types.RootBinding
	for _, rb := range roots {
		prefix := rb.LocalRoot + string(filepath.Separator)
		if strings.HasPrefix(normalized, prefix) {
			matches = append(matches, rb)
		}
	}

	switch len(matches) {
	case 0:
		return nil, "", syncerr.New(syncerr.NotFound, "no root binding contains %s", normalized)
	case 1:
		rb := matches[0]
		remainder := strings.TrimPrefix(normalized, rb.LocalRoot+string(filepath.Separator))
		return rb, rootRelative(remainder), nil
	default:
		return nil, "", syncerr.New(syncerr.Ambiguous, "%d root bindings contain %s", len(matches), normalized)
	}
}

// rootRelative canonicalizes a filesystem-separated remainder into
// the '/'-separated, leading-'/' form used by PairRecord.Path.
func rootRelative(remainder string) string {
	converted := filepath.ToSlash(remainder)
	if !strings.HasPrefix(converted, "/") {
		converted = "/" + converted
	}
	return converted
}

// UnderRoot reports whether candidateRoot is a strict descendant of
// parentFolder, the RootBinding containment invariant (spec.md §8,
// invariant 1). Neither PutRootBinding nor the Controller's bind path
// calls it.
func UnderRoot(parentFolder, candidateRoot string) bool {
	parentFolder = filepath.Clean(parentFolder)
	candidateRoot = filepath.Clean(candidateRoot)
	if candidateRoot == parentFolder {
		return false
	}
	return strings.HasPrefix(candidateRoot, parentFolder+string(filepath.Separator))
}
