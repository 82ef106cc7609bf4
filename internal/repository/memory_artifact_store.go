package repository

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"sync"

	domrepo "FinCast/internal/domain/repository"
)

type memoryArtifact struct {
	data    []byte
	version uint64
}

// MemoryArtifactStore is an ArtifactStore for tests and ephemeral runs.
// Every write bumps a store-wide counter used as the version.
type MemoryArtifactStore struct {
	name string
	mu   sync.RWMutex
	m    map[string]memoryArtifact
	seq  uint64
}

func NewMemoryArtifactStore(name string) *MemoryArtifactStore {
	return &MemoryArtifactStore{name: name, m: make(map[string]memoryArtifact)}
}

func (s *MemoryArtifactStore) Location(key string) string {
	return "mem://" + s.name + "/" + key + ArtifactSuffix
}

func (s *MemoryArtifactStore) Stat(_ context.Context, key string) (domrepo.ArtifactInfo, bool, error) {
	s.mu.RLock()
	a, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return domrepo.ArtifactInfo{}, false, nil
	}
	return s.info(key, a), true, nil
}

func (s *MemoryArtifactStore) Read(_ context.Context, key string) ([]byte, domrepo.ArtifactInfo, error) {
	s.mu.RLock()
	a, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, domrepo.ArtifactInfo{}, fmt.Errorf("read %s: %w", s.Location(key), fs.ErrNotExist)
	}
	return a.data, s.info(key, a), nil
}

func (s *MemoryArtifactStore) Write(ctx context.Context, key string, data []byte) (domrepo.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return domrepo.ArtifactInfo{}, err
	}
	buf := append([]byte(nil), data...)
	s.mu.Lock()
	s.seq++
	a := memoryArtifact{data: buf, version: s.seq}
	s.m[key] = a
	s.mu.Unlock()
	return s.info(key, a), nil
}

func (s *MemoryArtifactStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

// Delete removes key. Missing keys are ignored.
func (s *MemoryArtifactStore) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

func (s *MemoryArtifactStore) info(key string, a memoryArtifact) domrepo.ArtifactInfo {
	return domrepo.ArtifactInfo{
		Key:      key,
		Location: s.Location(key),
		Version:  strconv.FormatUint(a.version, 10),
	}
}
