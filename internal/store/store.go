// Package store is the durable backing of the synchronization control
// core (component C1 of the control-plane design): device identity,
// server and root bindings, and pair states, all persisted in a single
// embedded database file under the agent's configuration folder.
package store

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/syncctl/internal/synclog"
	"github.com/cuemby/syncctl/internal/types"
)

var (
	bucketDevice        = []byte("device")
	bucketServerBindings = []byte("server_bindings")
	bucketRootBindings   = []byte("root_bindings")
	bucketPairStates     = []byte("pair_states")
)

const deviceConfigKey = "device"

// Store is the control core's embedded database. It owns schema
// bootstrap and device-identity creation; all reads and writes beyond
// that go through a Session.
type Store struct {
	db          *bolt.DB
	debugLogSQL bool
	deviceID    string
}

// Open creates or opens `<configFolder>/syncctl.db`, bootstraps the
// bucket-per-entity schema if absent, and ensures a DeviceConfig
// exists. debugLogSQL mirrors the presence of SYNCCTL_DEBUG_SQL (see
// internal/config): when true, every bucket mutation emits a
// debug-level log line naming the bucket, key, and operation kind.
func Open(configFolder string, debugLogSQL bool) (*Store, error) {
	dbPath := filepath.Join(configFolder, "syncctl.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketDevice, bucketServerBindings, bucketRootBindings, bucketPairStates} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, debugLogSQL: debugLogSQL}

	if err := s.ensureDeviceConfig(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// ensureDeviceConfig creates the singleton DeviceConfig on first open,
// per spec.md §3: "created on first Store open if absent; never
// deleted." Runs its own writable transaction since it must complete
// before any Session is handed out.
func (s *Store) ensureDeviceConfig() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDevice)
		data := b.Get([]byte(deviceConfigKey))
		if data != nil {
			var cfg types.DeviceConfig
			if err := unmarshalJSON(data, &cfg); err != nil {
				return err
			}
			s.deviceID = cfg.DeviceID
			return nil
		}

		cfg := types.DeviceConfig{DeviceID: uuid.NewString()}
		encoded, err := marshalJSON(cfg)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(deviceConfigKey), encoded); err != nil {
			return err
		}
		s.deviceID = cfg.DeviceID
		synclog.WithComponent("store").Info().Str("device_id", cfg.DeviceID).Msg("device config created")
		return nil
	})
}

// DeviceID returns the cached device identity. It never blocks on the
// database, since ensureDeviceConfig resolved it at Open time.
func (s *Store) DeviceID() string {
	return s.deviceID
}

// Session begins a new scoped session. writable sessions hold the
// database's single write lock for their lifetime and must be
// Commit()ed or Rollback()ed promptly; read-only sessions may be held
// concurrently with each other and with a writer's reads.
func (s *Store) Session(writable bool) (*Session, error) {
	tx, err := s.db.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{tx: tx, store: s, writable: writable}, nil
}

// Dispose closes the database, tearing down the connection pool. It
// blocks until every Session still open has been committed or rolled
// back, so callers release all sessions first, per spec.md §4.1.
func (s *Store) Dispose() error {
	return s.db.Close()
}
