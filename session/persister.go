package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Persister is the client-side storage behind a Store. Implementations hold at
// most one record.
type Persister interface {
	// Load returns the stored record, or ErrNoPersistedSession when empty.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored record.
	Save(ctx context.Context, data []byte) error
	// Delete removes the stored record. Deleting an empty store is not an error.
	Delete(ctx context.Context) error
}

// MemoryPersister keeps the record in process memory. It is the default for
// hosts that do not need the session to survive a restart.
type MemoryPersister struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoPersistedSession
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryPersister) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryPersister) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// FilePersister stores the record in a single file, written atomically via a
// temporary file and rename. The file is created with mode 0600.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the backing file location.
func (f *FilePersister) Path() string {
	return f.path
}

func (f *FilePersister) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoPersistedSession
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(data) == 0 {
		return nil, ErrNoPersistedSession
	}
	return data, nil
}

func (f *FilePersister) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (f *FilePersister) Delete(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// RedisPersister stores the record under a single Redis key, so several host
// processes (for example dashboard replicas behind a sticky proxy) observe
// the same session. A positive ttl bounds how long an idle record survives.
type RedisPersister struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisPersister creates a persister writing to prefix + ":" + name.
func NewRedisPersister(client redis.UniversalClient, prefix, name string, ttl time.Duration) *RedisPersister {
	if prefix == "" {
		prefix = "pgs"
	}
	if name == "" {
		name = "default"
	}
	return &RedisPersister{
		redis: client,
		key:   prefix + ":" + name,
		ttl:   ttl,
	}
}

// Key returns the Redis key holding the record.
func (r *RedisPersister) Key() string {
	return r.key
}

func (r *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPersistedSession
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return data, nil
}

func (r *RedisPersister) Save(ctx context.Context, data []byte) error {
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.redis.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (r *RedisPersister) Delete(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
