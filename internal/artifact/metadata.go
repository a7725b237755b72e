// metadata.go parsing and validation of the artifact metadata manifest
package artifact

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Metadata is the manifest the training pipeline exports next to the
// regressor and encoders. FeatureList fixes the exact order of the model
// input vector, feature assembly must follow it position by position.
type Metadata struct {
	FeatureList          []string `json:"feature_list"`
	CategoricalColumns   []string `json:"categorical_columns"`
	InputColumnsRequired []string `json:"input_columns_required"`
	ModelVersion         string   `json:"model_version"`
	TrainedAt            string   `json:"trained_at"`
}

// ParseMetadata decodes and validates a metadata manifest.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid metadata JSON: %w", err)
	}

	if len(m.FeatureList) == 0 {
		return nil, fmt.Errorf("metadata feature_list is empty")
	}
	if m.ModelVersion == "" {
		return nil, fmt.Errorf("metadata model_version is empty")
	}

	seen := make(map[string]struct{}, len(m.FeatureList))
	for _, f := range m.FeatureList {
		if f == "" {
			return nil, fmt.Errorf("metadata feature_list contains an empty name")
		}
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("metadata feature_list contains duplicate feature %q", f)
		}
		seen[f] = struct{}{}
	}

	// Categorical columns appear in the feature list through their encoded
	// counterpart, the raw column name itself must not be a feature.
	for _, col := range m.CategoricalColumns {
		if col == "" {
			return nil, fmt.Errorf("metadata categorical_columns contains an empty name")
		}
	}
	for _, col := range m.InputColumnsRequired {
		if col == "" {
			return nil, fmt.Errorf("metadata input_columns_required contains an empty name")
		}
	}

	return &m, nil
}

// IsCategorical reports whether the named input column is label encoded.
func (m *Metadata) IsCategorical(column string) bool {
	return slices.Contains(m.CategoricalColumns, column)
}

// IsRequired reports whether the named input column must be present in a
// prediction request.
func (m *Metadata) IsRequired(column string) bool {
	return slices.Contains(m.InputColumnsRequired, column)
}

// FeatureIndex returns the position of a feature in the model input vector.
func (m *Metadata) FeatureIndex(feature string) (int, bool) {
	idx := slices.Index(m.FeatureList, feature)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}
