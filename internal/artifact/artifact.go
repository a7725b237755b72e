// Package artifact loads and serves the trained model artifacts for a
// prediction domain. Each domain directory carries three JSON files,
// exported together by the training pipeline and versioned as a unit:
// the regressor dump, the categorical encoders and the metadata manifest.
package artifact

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/logging"
)

// Artifact file names within a domain directory. The trainer writes all
// three in one export, they are only valid as a set.
const (
	RegressorFile = "regressor.json"
	EncodersFile  = "encoders.json"
	MetadataFile  = "metadata.json"
)

// maxArtifactSize caps how much of an artifact file is read. The JSON dumps
// for these models are well under a megabyte, anything larger is a broken
// export.
const maxArtifactSize = 64 * 1024 * 1024

// Package-level logger for artifact operations
var (
	artifactLogger   *slog.Logger
	artifactLevelVar = new(slog.LevelVar)
	closeLogger      func() error
)

func init() {
	var err error
	artifactLogger, closeLogger, err = logging.NewFileLogger("logs/artifact.log", "artifact", artifactLevelVar)
	if err != nil || artifactLogger == nil {
		// Fall back to a disabled handler to prevent nil panics
		artifactLogger = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "artifact")
		closeLogger = func() error { return nil }
		if err != nil {
			logging.Warn("Failed to initialize artifact file logger", "error", err)
		}
	}
}

// Model is an immutable bundle of the three artifacts of one domain.
// A Model is never mutated after LoadModel returns it, prediction code
// holds a *Model for the duration of a request and reload swaps in a
// fresh bundle without touching bundles already handed out.
type Model struct {
	Domain    string
	Dir       string
	Metadata  *Metadata
	Encoders  EncoderSet
	Regressor *Regressor
	LoadedAt  time.Time
}

// Version returns the model version string from the metadata manifest.
func (m *Model) Version() string {
	return m.Metadata.ModelVersion
}

// LoadModel reads and cross-validates the artifact set of one domain
// directory. It returns an error without side effects when any file is
// missing or malformed, a partial set never produces a usable Model.
func LoadModel(domain, dir string) (*Model, error) {
	start := time.Now()

	metaRaw, err := readArtifactFile(filepath.Join(dir, MetadataFile), domain)
	if err != nil {
		return nil, err
	}
	metadata, err := ParseMetadata(metaRaw)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(filepath.Join(dir, MetadataFile), domain).
			Build()
	}

	encRaw, err := readArtifactFile(filepath.Join(dir, EncodersFile), domain)
	if err != nil {
		return nil, err
	}
	encoders, err := ParseEncoders(encRaw)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(filepath.Join(dir, EncodersFile), domain).
			Build()
	}

	regRaw, err := readArtifactFile(filepath.Join(dir, RegressorFile), domain)
	if err != nil {
		return nil, err
	}
	regressor, err := ParseRegressor(regRaw, len(metadata.FeatureList))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(filepath.Join(dir, RegressorFile), domain).
			Build()
	}

	// The three files are only coherent as a set: every categorical column
	// the metadata names must have an encoder, otherwise feature assembly
	// would silently produce garbage codes.
	for _, col := range metadata.CategoricalColumns {
		if _, ok := encoders[col]; !ok {
			return nil, errors.Newf("encoders.json has no encoder for categorical column %q", col).
				Category(errors.CategoryArtifactCorrupt).
				ArtifactContext(filepath.Join(dir, EncodersFile), domain).
				Context("column", col).
				Build()
		}
	}

	m := &Model{
		Domain:    domain,
		Dir:       dir,
		Metadata:  metadata,
		Encoders:  encoders,
		Regressor: regressor,
		LoadedAt:  time.Now(),
	}

	artifactLogger.Info("artifact set loaded",
		"domain", domain,
		"dir", dir,
		"model_version", metadata.ModelVersion,
		"features", len(metadata.FeatureList),
		"trees", len(regressor.Trees),
		"duration_ms", time.Since(start).Milliseconds())

	return m, nil
}

// readArtifactFile checks artifact file integrity and returns its contents.
// Absence maps to the artifact-missing category, any structural problem
// with the file itself maps to artifact-corrupt.
func readArtifactFile(path, domain string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("artifact file not found: %s", filepath.Base(path)).
				Category(errors.CategoryArtifactMissing).
				ArtifactContext(path, domain).
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			ArtifactContext(path, domain).
			Build()
	}

	if !info.Mode().IsRegular() {
		return nil, errors.Newf("artifact path is not a regular file: %s", filepath.Base(path)).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(path, domain).
			Build()
	}
	if info.Size() == 0 {
		return nil, errors.Newf("artifact file is empty: %s", filepath.Base(path)).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(path, domain).
			Build()
	}
	if info.Size() > maxArtifactSize {
		return nil, errors.Newf("artifact file exceeds size limit: %s (%d bytes)", filepath.Base(path), info.Size()).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(path, domain).
			FileContext(path, info.Size()).
			Build()
	}
	if filepath.Ext(path) != ".json" {
		return nil, errors.Newf("artifact file has unexpected extension: %s", filepath.Base(path)).
			Category(errors.CategoryArtifactCorrupt).
			ArtifactContext(path, domain).
			Build()
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is built from configured artifact dir
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			ArtifactContext(path, domain).
			Build()
	}
	defer func() {
		if err := f.Close(); err != nil {
			artifactLogger.Warn("Failed to close artifact file", "path", path, "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, maxArtifactSize+1))
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading artifact file: %w", err)).
			Category(errors.CategoryFileIO).
			ArtifactContext(path, domain).
			Build()
	}
	return data, nil
}
