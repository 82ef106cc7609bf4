package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domrepo "FinCast/internal/domain/repository"
)

// ArtifactSuffix separates the entity key from the extension in artifact names.
const ArtifactSuffix = "_model"

// FSArtifactStore keeps artifacts as <dir>/<key>_model<ext>.
type FSArtifactStore struct {
	dir string
	ext string
}

func NewFSArtifactStore(dir, ext string) *FSArtifactStore {
	if ext == "" {
		ext = ".json"
	}
	return &FSArtifactStore{dir: dir, ext: ext}
}

func (s *FSArtifactStore) Dir() string { return s.dir }

func (s *FSArtifactStore) Location(key string) string {
	return filepath.Join(s.dir, key+ArtifactSuffix+s.ext)
}

func (s *FSArtifactStore) Stat(_ context.Context, key string) (domrepo.ArtifactInfo, bool, error) {
	loc := s.Location(key)
	fi, err := os.Stat(loc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domrepo.ArtifactInfo{}, false, nil
		}
		return domrepo.ArtifactInfo{}, false, fmt.Errorf("stat %s: %w", loc, err)
	}
	if fi.IsDir() {
		return domrepo.ArtifactInfo{}, false, nil
	}
	return s.info(key, fi), true, nil
}

// Read returns the bytes and version of the same file, even if a writer
// renames a new artifact into place concurrently.
func (s *FSArtifactStore) Read(_ context.Context, key string) ([]byte, domrepo.ArtifactInfo, error) {
	loc := s.Location(key)
	f, err := os.Open(loc)
	if err != nil {
		return nil, domrepo.ArtifactInfo{}, fmt.Errorf("open %s: %w", loc, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, domrepo.ArtifactInfo{}, fmt.Errorf("stat %s: %w", loc, err)
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, domrepo.ArtifactInfo{}, fmt.Errorf("read %s: %w", loc, err)
	}
	return b, s.info(key, fi), nil
}

// Write stages data in a temp file in the target directory and renames it
// over the previous artifact.
func (s *FSArtifactStore) Write(ctx context.Context, key string, data []byte) (domrepo.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return domrepo.ArtifactInfo{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return domrepo.ArtifactInfo{}, fmt.Errorf("create models dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return domrepo.ArtifactInfo{}, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return domrepo.ArtifactInfo{}, fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return domrepo.ArtifactInfo{}, fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return domrepo.ArtifactInfo{}, fmt.Errorf("close temp artifact: %w", err)
	}

	loc := s.Location(key)
	if err := os.Rename(tmpName, loc); err != nil {
		cleanup()
		return domrepo.ArtifactInfo{}, fmt.Errorf("rename artifact into %s: %w", loc, err)
	}

	fi, err := os.Stat(loc)
	if err != nil {
		return domrepo.ArtifactInfo{}, fmt.Errorf("stat %s: %w", loc, err)
	}
	return s.info(key, fi), nil
}

// List returns the keys of every artifact in the directory. A missing
// directory holds no artifacts.
func (s *FSArtifactStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	suffix := ArtifactSuffix + s.ext
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		if key := strings.TrimSuffix(name, suffix); key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FSArtifactStore) info(key string, fi fs.FileInfo) domrepo.ArtifactInfo {
	return domrepo.ArtifactInfo{
		Key:      key,
		Location: s.Location(key),
		Version:  fmt.Sprintf("%d-%d", fi.ModTime().UnixNano(), fi.Size()),
	}
}
