package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	domsvc "FinCast/internal/domain/service"
	"FinCast/internal/services/features"
	"FinCast/internal/services/regression"
	applogger "FinCast/pkg/logger"
)

// ModelRegistry searches an ordered list of artifact stores. The first store
// is primary and receives every write; the rest are read-only fallbacks.
type ModelRegistry struct {
	stores []domrepo.ArtifactStore
	l      *applogger.Logger
	now    func() time.Time
}

var _ domrepo.ModelRegistry = (*ModelRegistry)(nil)

func NewModelRegistry(primary domrepo.ArtifactStore, fallbacks ...domrepo.ArtifactStore) *ModelRegistry {
	stores := make([]domrepo.ArtifactStore, 0, 1+len(fallbacks))
	stores = append(stores, primary)
	for _, f := range fallbacks {
		if f != nil {
			stores = append(stores, f)
		}
	}
	return &ModelRegistry{stores: stores, l: applogger.Nop(), now: time.Now}
}

// SetLogger injects a structured logger.
func (r *ModelRegistry) SetLogger(l *applogger.Logger) {
	if l != nil {
		r.l = l
	}
}

// Resolve returns the first store holding an artifact for key.
func (r *ModelRegistry) Resolve(ctx context.Context, key string) (models.ModelHandle, error) {
	if !ValidKey(key) {
		return models.ModelHandle{}, &models.ModelNotFoundError{Key: key}
	}
	attempted := make([]string, 0, len(r.stores))
	for _, s := range r.stores {
		loc := s.Location(key)
		attempted = append(attempted, loc)
		info, ok, err := s.Stat(ctx, key)
		if err != nil {
			// unreadable locations count as misses
			r.l.Warn("model lookup failed",
				applogger.String("key", key),
				applogger.String("location", loc),
				applogger.Error(err),
			)
			continue
		}
		if ok {
			return models.ModelHandle{Key: key, Location: info.Location, Version: info.Version}, nil
		}
	}
	return models.ModelHandle{}, &models.ModelNotFoundError{Key: key, Attempted: attempted}
}

// Load decodes the artifact behind h. Every failure is a PredictionFailure.
func (r *ModelRegistry) Load(ctx context.Context, h models.ModelHandle) (domsvc.Model, models.ArtifactMeta, error) {
	s := r.storeFor(h)
	if s == nil {
		return nil, models.ArtifactMeta{}, fmt.Errorf("%w: no store serves %s", models.ErrPredictionFailure, h.Location)
	}
	b, _, err := s.Read(ctx, h.Key)
	if err != nil {
		return nil, models.ArtifactMeta{}, fmt.Errorf("%w: %w", models.ErrPredictionFailure, err)
	}
	m, meta, err := regression.Decode(b)
	if err != nil {
		return nil, models.ArtifactMeta{}, fmt.Errorf("%w: %s: %w", models.ErrPredictionFailure, h.Location, err)
	}
	if !features.SameLayout(meta.Features) {
		return nil, meta, fmt.Errorf("%w: %s was trained on features [%s], want [%s]",
			models.ErrPredictionFailure, h.Location,
			strings.Join(meta.Features, ", "), strings.Join(features.Names(), ", "))
	}
	if meta.Entity != "" && meta.Entity != h.Key {
		r.l.Warn("artifact entity differs from key",
			applogger.String("key", h.Key),
			applogger.String("entity", meta.Entity),
			applogger.String("location", h.Location),
		)
	}
	return m, meta, nil
}

// Persist encodes m with the canonical feature order and writes it to the
// primary store, replacing any previous artifact for key.
func (r *ModelRegistry) Persist(ctx context.Context, key string, meta models.ArtifactMeta, m domsvc.Model) (models.ModelHandle, error) {
	if !ValidKey(key) {
		return models.ModelHandle{}, fmt.Errorf("%w: invalid entity key %q", models.ErrTrainingFailure, key)
	}
	meta.Entity = key
	meta.Features = features.Names()
	if meta.TrainedAt.IsZero() {
		meta.TrainedAt = r.now().UTC()
	}
	b, err := regression.Encode(meta, m)
	if err != nil {
		return models.ModelHandle{}, fmt.Errorf("%w: %w", models.ErrTrainingFailure, err)
	}
	info, err := r.stores[0].Write(ctx, key, b)
	if err != nil {
		return models.ModelHandle{}, fmt.Errorf("%w: %w", models.ErrTrainingFailure, err)
	}
	return models.ModelHandle{Key: key, Location: info.Location, Version: info.Version}, nil
}

// Has reports whether any store holds an artifact for key, without loading it.
func (r *ModelRegistry) Has(ctx context.Context, key string) (bool, error) {
	_, err := r.Resolve(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, models.ErrModelNotFound) {
		return false, nil
	}
	return false, err
}

// List returns the sorted union of keys across stores.
func (r *ModelRegistry) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, s := range r.stores {
		keys, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			if ValidKey(k) {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (r *ModelRegistry) storeFor(h models.ModelHandle) domrepo.ArtifactStore {
	for _, s := range r.stores {
		if s.Location(h.Key) == h.Location {
			return s
		}
	}
	return nil
}

// ValidKey rejects keys that could escape a store's directory.
func ValidKey(key string) bool {
	if strings.TrimSpace(key) == "" || key == "." || strings.Contains(key, "..") {
		return false
	}
	return !strings.ContainsAny(key, `/\`) && !strings.ContainsRune(key, 0)
}
