package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBKV embedded KV for single-node deployments without redis. Values are
// stored with their expiry; expired keys read as misses and are removed lazily.
type LevelDBKV struct {
	db  *leveldb.DB
	now func() time.Time
	// takeMu serializes Take; leveldb has no atomic read-and-delete.
	takeMu sync.Mutex
}

type levelEntry struct {
	Value     string `json:"v"`
	ExpiresAt int64  `json:"e,omitempty"` // unix nanos, 0 = no expiry
}

// OpenLevelDBKV opens (or creates) the database directory.
func OpenLevelDBKV(dir string) (*LevelDBKV, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", dir, err)
	}
	return &LevelDBKV{db: db, now: time.Now}, nil
}

var _ KV = (*LevelDBKV)(nil)

func (l *LevelDBKV) Close() error { return l.db.Close() }

func (l *LevelDBKV) Get(_ context.Context, key string) (string, error) {
	raw, err := l.db.Get([]byte(key), nil)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return "", ErrMiss
		}
		return "", err
	}
	e, ok := l.decode(raw)
	if !ok {
		_ = l.db.Delete([]byte(key), nil)
		return "", ErrMiss
	}
	return e.Value, nil
}

func (l *LevelDBKV) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	e := levelEntry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = l.now().Add(ttl).UnixNano()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return l.db.Put([]byte(key), data, nil)
}

func (l *LevelDBKV) Take(ctx context.Context, key string) (string, error) {
	l.takeMu.Lock()
	defer l.takeMu.Unlock()
	v, err := l.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := l.db.Delete([]byte(key), nil); err != nil {
		return "", err
	}
	return v, nil
}

func (l *LevelDBKV) Delete(_ context.Context, key string) error {
	return l.db.Delete([]byte(key), nil)
}

// ScanKeys iterates the literal prefix of pattern and filters with path.Match.
func (l *LevelDBKV) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	prefix := pattern
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		prefix = pattern[:i]
	}
	it := l.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		k := string(it.Key())
		if ok, _ := path.Match(pattern, k); !ok {
			continue
		}
		if _, live := l.decode(it.Value()); live {
			keys = append(keys, k)
		}
	}
	return keys, it.Error()
}

func (l *LevelDBKV) decode(raw []byte) (levelEntry, bool) {
	var e levelEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, false
	}
	if e.ExpiresAt != 0 && l.now().UnixNano() >= e.ExpiresAt {
		return e, false
	}
	return e, true
}
