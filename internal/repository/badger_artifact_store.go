package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	domrepo "FinCast/internal/domain/repository"
)

const badgerKeyPrefix = "artifact/"

// BadgerArtifactStore keeps artifacts in an embedded Badger database. The
// commit timestamp of the last write is the artifact version.
type BadgerArtifactStore struct {
	db   *badger.DB
	name string
}

// OpenBadgerArtifactStore opens (or creates) a database in dir. An empty dir
// keeps everything in memory.
func OpenBadgerArtifactStore(dir string) (*BadgerArtifactStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	name := dir
	if dir == "" {
		opts = opts.WithInMemory(true)
		name = "memory"
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", dir, err)
	}
	return &BadgerArtifactStore{db: db, name: name}, nil
}

func (s *BadgerArtifactStore) Close() error { return s.db.Close() }

func (s *BadgerArtifactStore) Location(key string) string {
	return "badger://" + s.name + "/" + key + ArtifactSuffix
}

func (s *BadgerArtifactStore) Stat(_ context.Context, key string) (domrepo.ArtifactInfo, bool, error) {
	var (
		info  domrepo.ArtifactInfo
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		info, found = s.info(key, item.Version()), true
		return nil
	})
	if err != nil {
		return domrepo.ArtifactInfo{}, false, fmt.Errorf("stat %s: %w", s.Location(key), err)
	}
	return info, found, nil
}

func (s *BadgerArtifactStore) Read(_ context.Context, key string) ([]byte, domrepo.ArtifactInfo, error) {
	var (
		b    []byte
		info domrepo.ArtifactInfo
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fs.ErrNotExist
		}
		if err != nil {
			return err
		}
		b, err = item.ValueCopy(nil)
		info = s.info(key, item.Version())
		return err
	})
	if err != nil {
		return nil, domrepo.ArtifactInfo{}, fmt.Errorf("read %s: %w", s.Location(key), err)
	}
	return b, info, nil
}

func (s *BadgerArtifactStore) Write(ctx context.Context, key string, data []byte) (domrepo.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return domrepo.ArtifactInfo{}, err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), data)
	}); err != nil {
		return domrepo.ArtifactInfo{}, fmt.Errorf("write %s: %w", s.Location(key), err)
	}
	info, ok, err := s.Stat(ctx, key)
	if err != nil {
		return domrepo.ArtifactInfo{}, err
	}
	if !ok {
		return domrepo.ArtifactInfo{}, fmt.Errorf("write %s: artifact vanished after commit", s.Location(key))
	}
	return info, nil
}

func (s *BadgerArtifactStore) List(_ context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), badgerKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *BadgerArtifactStore) info(key string, version uint64) domrepo.ArtifactInfo {
	return domrepo.ArtifactInfo{
		Key:      key,
		Location: s.Location(key),
		Version:  strconv.FormatUint(version, 10),
	}
}

func dbKey(key string) []byte { return []byte(badgerKeyPrefix + key) }
