// Package registry implements the durable topology store every fleet node
// keeps locally: a point-in-time mirror of the replicated StreamConfig set,
// good enough to resume from after a crash without waiting on a Raft
// snapshot transfer. It is intentionally not itself replicated — the FSM
// is the source of truth; repair phases (internal/cluster's
// PhaseDoRepairNew/PhaseDoRepairUpdate) reconcile this store against it.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

const (
	streamKeyPrefix = "stream/"
	lockKeyPrefix   = "lock/"
)

// Config configures the Badger-backed registry.
type Config struct {
	Dir    string
	Logger *slog.Logger
}

// Badger is a cluster.Registry and cluster.StartupLock backed by an
// embedded transactional KV store, grounded on the teacher's own
// internal/storage/badger.go KVEngine (since deleted; the shape is
// reconstructed here rather than copied).
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the registry at cfg.Dir.
func Open(cfg Config) (*Badger, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("registry: open badger: %w", err)
	}

	return &Badger{db: db, logger: cfg.Logger}, nil
}

// Close releases the underlying Badger handle.
func (r *Badger) Close() error {
	return r.db.Close()
}

func streamKey(id cluster.StreamID) []byte {
	return []byte(streamKeyPrefix + string(id))
}

// Declare implements cluster.Registry.
func (r *Badger) Declare(ctx context.Context, conf cluster.StreamConfig) error {
	return r.put(streamKey(conf.Stream), conf)
}

// Update implements cluster.Registry.
func (r *Badger) Update(ctx context.Context, conf cluster.StreamConfig) error {
	return r.put(streamKey(conf.Stream), conf)
}

// Delete implements cluster.Registry.
func (r *Badger) Delete(ctx context.Context, stream cluster.StreamID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(streamKey(stream))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Get implements cluster.Registry.
func (r *Badger) Get(ctx context.Context, stream cluster.StreamID) (cluster.StreamConfig, bool, error) {
	var conf cluster.StreamConfig
	found := false

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(streamKey(stream))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conf)
		})
	})
	if err != nil {
		return cluster.StreamConfig{}, false, fmt.Errorf("registry: get %s: %w", stream, err)
	}
	return conf, found, nil
}

// List implements cluster.Registry.
func (r *Badger) List(ctx context.Context) ([]cluster.StreamConfig, error) {
	var out []cluster.StreamConfig

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(streamKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var conf cluster.StreamConfig
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &conf)
			}); err != nil {
				return err
			}
			out = append(out, conf)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	return out, nil
}

func (r *Badger) put(key []byte, conf cluster.StreamConfig) error {
	data, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// lockRecord is the value stored for a held startup lock.
type lockRecord struct {
	Holder    cluster.Node `json:"holder"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Acquire implements cluster.StartupLock: a transactional compare-and-set
// on a single key, reclaimable once its TTL lapses. This resolves spec
// §9's open question about a "global named lock" without introducing a
// new moving part — the registry is already present and transactional on
// every node.
func (r *Badger) Acquire(ctx context.Context, name string, holder cluster.Node, ttl time.Duration) (bool, error) {
	key := []byte(lockKeyPrefix + name)
	now := time.Now()

	acquired := false
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}

		if err == nil {
			var existing lockRecord
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); verr != nil {
				return verr
			}
			if existing.Holder != holder && now.Before(existing.ExpiresAt) {
				return nil
			}
		}

		rec := lockRecord{Holder: holder, ExpiresAt: now.Add(ttl)}
		data, merr := json.Marshal(rec)
		if merr != nil {
			return merr
		}
		if serr := txn.Set(key, data); serr != nil {
			return serr
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("registry: acquire lock %s: %w", name, err)
	}
	return acquired, nil
}

// Release implements cluster.StartupLock.
func (r *Badger) Release(ctx context.Context, name string, holder cluster.Node) error {
	key := []byte(lockKeyPrefix + name)
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var existing lockRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &existing)
		}); err != nil {
			return err
		}
		if existing.Holder != holder {
			return nil
		}
		return txn.Delete(key)
	})
}
