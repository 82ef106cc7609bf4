package regression

import (
	"encoding/json"
	"fmt"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
)

// envelope is the on-disk artifact: metadata plus the algorithm-specific model.
type envelope struct {
	models.ArtifactMeta
	Model json.RawMessage `json:"model"`
}

type validator interface{ validate() error }

// Encode serializes m with meta. meta.Algorithm is taken from m.
func Encode(meta models.ArtifactMeta, m domsvc.Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode artifact: nil model")
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	meta.Algorithm = m.Algorithm()
	b, err := json.Marshal(envelope{ArtifactMeta: meta, Model: raw})
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return b, nil
}

// Decode restores the model and metadata written by Encode.
func Decode(b []byte) (domsvc.Model, models.ArtifactMeta, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, models.ArtifactMeta{}, fmt.Errorf("decode artifact: %w", err)
	}
	if len(env.Model) == 0 {
		return nil, env.ArtifactMeta, fmt.Errorf("decode artifact: missing model")
	}

	var m interface {
		domsvc.Model
		validator
	}
	switch env.Algorithm {
	case AlgorithmGBRT:
		m = &GBRTModel{}
	case AlgorithmLinear:
		m = &LinearModel{}
	default:
		return nil, env.ArtifactMeta, fmt.Errorf("decode artifact: unknown algorithm %q", env.Algorithm)
	}
	if err := json.Unmarshal(env.Model, m); err != nil {
		return nil, env.ArtifactMeta, fmt.Errorf("decode %s model: %w", env.Algorithm, err)
	}
	if err := m.validate(); err != nil {
		return nil, env.ArtifactMeta, fmt.Errorf("decode %s model: %w", env.Algorithm, err)
	}
	return m, env.ArtifactMeta, nil
}
