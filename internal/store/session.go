package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/syncctl/internal/synclog"
	"github.com/cuemby/syncctl/internal/types"
)

// Session is a scoped unit of atomic work over the Store, per spec.md
// §4.1: commit and rollback are explicit, and a Session belongs to a
// single execution context for its entire lifetime.
type Session struct {
	tx       *bolt.Tx
	store    *Store
	writable bool
	done     bool
}

// Commit finalizes a writable session's mutations. Calling Commit on a
// read-only session simply releases it.
func (s *Session) Commit() error {
	if s.done {
		return fmt.Errorf("session already closed")
	}
	s.done = true
	if !s.writable {
		return s.tx.Rollback()
	}
	return s.tx.Commit()
}

// Rollback discards a session's mutations (a no-op for reads beyond
// releasing the transaction).
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Rollback()
}

func (s *Session) requireWritable() error {
	if !s.writable {
		return fmt.Errorf("session is read-only")
	}
	return nil
}

func (s *Session) logOp(bucket, key, op string) {
	if s.store.debugLogSQL {
		synclog.WithComponent("store").Debug().
			Str("bucket", bucket).
			Str("key", key).
			Str("op", op).
			Msg("store operation")
	}
}

// --- ServerBinding ---

func (s *Session) PutServerBinding(sb *types.ServerBinding) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	data, err := marshalJSON(sb)
	if err != nil {
		return err
	}
	s.logOp("server_bindings", sb.LocalFolder, "put")
	return s.tx.Bucket(bucketServerBindings).Put([]byte(sb.LocalFolder), data)
}

// GetServerBinding returns nil, nil if no binding exists for localFolder.
func (s *Session) GetServerBinding(localFolder string) (*types.ServerBinding, error) {
	data := s.tx.Bucket(bucketServerBindings).Get([]byte(localFolder))
	s.logOp("server_bindings", localFolder, "get")
	if data == nil {
		return nil, nil
	}
	var sb types.ServerBinding
	if err := unmarshalJSON(data, &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}

func (s *Session) ListServerBindings() ([]*types.ServerBinding, error) {
	var out []*types.ServerBinding
	err := s.tx.Bucket(bucketServerBindings).ForEach(func(k, v []byte) error {
		var sb types.ServerBinding
		if err := unmarshalJSON(v, &sb); err != nil {
			return err
		}
		out = append(out, &sb)
		return nil
	})
	return out, err
}

func (s *Session) DeleteServerBinding(localFolder string) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	s.logOp("server_bindings", localFolder, "delete")
	return s.tx.Bucket(bucketServerBindings).Delete([]byte(localFolder))
}

// --- RootBinding ---

func (s *Session) PutRootBinding(rb *types.RootBinding) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	data, err := marshalJSON(rb)
	if err != nil {
		return err
	}
	s.logOp("root_bindings", rb.LocalRoot, "put")
	return s.tx.Bucket(bucketRootBindings).Put([]byte(rb.LocalRoot), data)
}

// GetRootBinding returns nil, nil if no binding exists for localRoot.
func (s *Session) GetRootBinding(localRoot string) (*types.RootBinding, error) {
	data := s.tx.Bucket(bucketRootBindings).Get([]byte(localRoot))
	s.logOp("root_bindings", localRoot, "get")
	if data == nil {
		return nil, nil
	}
	var rb types.RootBinding
	if err := unmarshalJSON(data, &rb); err != nil {
		return nil, err
	}
	return &rb, nil
}

func (s *Session) ListRootBindings() ([]*types.RootBinding, error) {
	var out []*types.RootBinding
	err := s.tx.Bucket(bucketRootBindings).ForEach(func(k, v []byte) error {
		var rb types.RootBinding
		if err := unmarshalJSON(v, &rb); err != nil {
			return err
		}
		out = append(out, &rb)
		return nil
	})
	return out, err
}

// ListRootBindingsByServer returns the roots registered under a given
// ServerBinding, identified by its LocalFolder.
func (s *Session) ListRootBindingsByServer(serverBindingID string) ([]*types.RootBinding, error) {
	all, err := s.ListRootBindings()
	if err != nil {
		return nil, err
	}
	var out []*types.RootBinding
	for _, rb := range all {
		if rb.ServerBindingID == serverBindingID {
			out = append(out, rb)
		}
	}
	return out, nil
}

func (s *Session) DeleteRootBinding(localRoot string) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	s.logOp("root_bindings", localRoot, "delete")
	return s.tx.Bucket(bucketRootBindings).Delete([]byte(localRoot))
}

// --- PairState ---

// PutPairState upserts a pair record, minting a stable ID on first
// insert if the caller left it blank.
func (s *Session) PutPairState(p *types.PairRecord) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.VersionTag++
	data, err := marshalJSON(p)
	if err != nil {
		return err
	}
	s.logOp("pair_states", p.ID, "put")
	return s.tx.Bucket(bucketPairStates).Put([]byte(p.ID), data)
}

func (s *Session) DeletePairState(id string) error {
	if err := s.requireWritable(); err != nil {
		return err
	}
	s.logOp("pair_states", id, "delete")
	return s.tx.Bucket(bucketPairStates).Delete([]byte(id))
}

// ListAllPairStates is the one place that scans the full bucket; every
// other pair-state query below filters its result.
func (s *Session) ListAllPairStates() ([]*types.PairRecord, error) {
	var out []*types.PairRecord
	err := s.tx.Bucket(bucketPairStates).ForEach(func(k, v []byte) error {
		var p types.PairRecord
		if err := unmarshalJSON(v, &p); err != nil {
			return err
		}
		out = append(out, &p)
		return nil
	})
	return out, err
}

// FindPairStateByPath looks up the pair keyed by (local_root, path).
func (s *Session) FindPairStateByPath(localRoot, path string) (*types.PairRecord, error) {
	all, err := s.ListAllPairStates()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.LocalRoot == localRoot && p.Path == path {
			return p, nil
		}
	}
	return nil, nil
}

// FindPairStateByRemote looks up the pair keyed by (local_root,
// remote_ref), the query Controller.GetState uses once it has narrowed
// candidates down to the root bindings matching (server_url, repo).
func (s *Session) FindPairStateByRemote(localRoot, remoteRef string) (*types.PairRecord, error) {
	all, err := s.ListAllPairStates()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.LocalRoot == localRoot && p.RemoteRef == remoteRef {
			return p, nil
		}
	}
	return nil, nil
}

// ListPairStatesUnderRoot returns every pair tracked under a root, used
// for cascading deletes and for the aggregator's descendant walk.
func (s *Session) ListPairStatesUnderRoot(localRoot string) ([]*types.PairRecord, error) {
	all, err := s.ListAllPairStates()
	if err != nil {
		return nil, err
	}
	var out []*types.PairRecord
	for _, p := range all {
		if p.LocalRoot == localRoot {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPairStatesUnderFolder returns every pair tracked under any root
// of the given ServerBinding's local_folder, used when unbind_server
// cascades deletes across all of its roots.
func (s *Session) ListPairStatesUnderFolder(localFolder string) ([]*types.PairRecord, error) {
	all, err := s.ListAllPairStates()
	if err != nil {
		return nil, err
	}
	var out []*types.PairRecord
	for _, p := range all {
		if p.LocalFolder == localFolder {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPending returns up to limit pair states with PairState !=
// synchronized, optionally filtered to localFolder, excluding records
// whose LastSyncErrorDate falls within ignoreInErrorSeconds of now.
// Ordering is ascending by (Path, RemotePath), per spec.md §4.4/§5.
func (s *Session) ListPending(limit int, localFolder string, ignoreInErrorSeconds int, now time.Time) ([]*types.PairRecord, error) {
	all, err := s.ListAllPairStates()
	if err != nil {
		return nil, err
	}

	var candidates []*types.PairRecord
	for _, p := range all {
		if p.PairState == types.StateSynchronized {
			continue
		}
		if localFolder != "" && p.LocalFolder != localFolder {
			continue
		}
		if ignoreInErrorSeconds > 0 && p.LastSyncErrorDate != nil {
			cutoff := now.Add(-time.Duration(ignoreInErrorSeconds) * time.Second)
			if p.LastSyncErrorDate.After(cutoff) {
				continue
			}
		}
		candidates = append(candidates, p)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Path != candidates[j].Path {
			return candidates[i].Path < candidates[j].Path
		}
		return candidates[i].RemotePath < candidates[j].RemotePath
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
