// store.go lazy loading artifact store with atomic reload
package artifact

import (
	"slices"
	"sync"
	"time"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// Store owns the artifact set of one prediction domain. Artifacts load
// lazily on first use and stay resident until Reload swaps in a fresh
// bundle. A failed load leaves the store empty and is retried on the
// next Acquire, a failed reload keeps the previous bundle serving.
type Store struct {
	domain string
	dir    string

	mu          sync.RWMutex
	model       *Model
	lastErr     error
	reloadHooks []func()
}

// Info describes the current state of a store for status reporting.
type Info struct {
	Domain               string         `json:"domain"`
	ArtifactDir          string         `json:"artifactDir"`
	Loaded               bool           `json:"loaded"`
	ModelVersion         string         `json:"modelVersion,omitempty"`
	TrainedAt            string         `json:"trainedAt,omitempty"`
	FeatureCount         int            `json:"featureCount,omitempty"`
	FeatureList          []string       `json:"featureList,omitempty"`
	CategoricalColumns   []string       `json:"categoricalColumns,omitempty"`
	RequiredInputFields  []string       `json:"requiredInputFields,omitempty"`
	EncoderCardinalities map[string]int `json:"encoderCardinalities,omitempty"`
	RegressorTrees       int            `json:"regressorTrees,omitempty"`
	LoadedAt             time.Time      `json:"loadedAt,omitzero"`
	LastError            string         `json:"lastError,omitempty"`
}

// NewStore creates a store for a domain without touching the filesystem.
// The first Acquire performs the load.
func NewStore(domain string, dc conf.DomainConfig) *Store {
	return &Store{
		domain: domain,
		dir:    conf.GetBasePath(dc.ArtifactDir),
	}
}

// Domain returns the domain name this store serves.
func (s *Store) Domain() string {
	return s.domain
}

// Dir returns the artifact directory this store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Acquire returns the loaded model bundle, loading it first if no bundle
// is resident. Concurrent callers during the initial load serialize on
// the store lock, exactly one of them performs the read from disk. A load
// failure is returned to the caller and retried by the next Acquire, the
// store never latches an error state.
func (s *Store) Acquire() (*Model, error) {
	s.mu.RLock()
	if m := s.model; m != nil {
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have completed the load while we waited.
	if s.model != nil {
		return s.model, nil
	}

	start := time.Now()
	m, err := LoadModel(s.domain, s.dir)
	if mx := getMetrics(); mx != nil {
		mx.RecordLoad(s.domain, time.Since(start).Seconds(), err)
	}
	if err != nil {
		s.lastErr = err
		return nil, err
	}
	s.model = m
	s.lastErr = nil
	return m, nil
}

// IsLoaded reports whether a model bundle is resident.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

// Reload loads a fresh artifact set and swaps it in. The new bundle is
// built before the store lock is taken, readers keep getting the old
// bundle until the swap and requests already holding the old bundle
// finish on it undisturbed. On failure the resident bundle stays.
func (s *Store) Reload() error {
	m, err := LoadModel(s.domain, s.dir)
	if mx := getMetrics(); mx != nil {
		mx.RecordReload(s.domain, err)
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()

		artifactLogger.Error("artifact reload failed, keeping previous model",
			"domain", s.domain,
			"dir", s.dir,
			"error", err)
		return errors.New(err).
			Category(errors.CategoryModelLoad).
			Context("domain", s.domain).
			Context("operation", "reload").
			Build()
	}

	s.mu.Lock()
	old := s.model
	s.model = m
	s.lastErr = nil
	hooks := slices.Clone(s.reloadHooks)
	s.mu.Unlock()

	if old != nil {
		artifactLogger.Info("artifact set replaced",
			"domain", s.domain,
			"old_version", old.Metadata.ModelVersion,
			"new_version", m.Metadata.ModelVersion)
	}
	for _, hook := range hooks {
		hook()
	}
	return nil
}

// OnReload registers a hook that runs after every successful Reload. The
// prediction layer uses this to drop cached results computed by the
// replaced model.
func (s *Store) OnReload(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadHooks = append(s.reloadHooks, hook)
}

// ModelInfo returns a snapshot of the store state. It never triggers a
// load, an untouched store reports Loaded false.
func (s *Store) ModelInfo() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		Domain:      s.domain,
		ArtifactDir: s.dir,
	}
	if s.lastErr != nil {
		info.LastError = s.lastErr.Error()
	}
	if s.model == nil {
		return info
	}

	info.Loaded = true
	info.ModelVersion = s.model.Metadata.ModelVersion
	info.TrainedAt = s.model.Metadata.TrainedAt
	info.FeatureCount = len(s.model.Metadata.FeatureList)
	info.FeatureList = slices.Clone(s.model.Metadata.FeatureList)
	info.CategoricalColumns = slices.Clone(s.model.Metadata.CategoricalColumns)
	info.RequiredInputFields = slices.Clone(s.model.Metadata.InputColumnsRequired)
	info.EncoderCardinalities = make(map[string]int, len(s.model.Encoders))
	for column, enc := range s.model.Encoders {
		info.EncoderCardinalities[column] = len(enc.Classes)
	}
	info.RegressorTrees = len(s.model.Regressor.Trees)
	info.LoadedAt = s.model.LoadedAt
	return info
}
