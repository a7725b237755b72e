package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testMetadataJSON returns a minimal coherent metadata manifest. The
// feature order matters, regressor fixtures index into it.
func testMetadataJSON(version string) string {
	return `{
		"feature_list": ["mes_pol", "cantidad", "especie_encoded"],
		"categorical_columns": ["especie"],
		"input_columns_required": ["fecha_polinizacion", "especie"],
		"model_version": "` + version + `",
		"trained_at": "2026-05-01T10:00:00Z"
	}`
}

const testEncodersJSON = `{
	"especie": {"classes": ["mossiae", "trianae", "warscewiczii"]}
}`

// testRegressorJSON is a single tree splitting on mes_pol at 6.5 with a
// base score of 50. Months before July score 60, later months 45.
const testRegressorJSON = `{
	"format": "gbtree-dump/v1",
	"base_score": 50,
	"trees": [
		{"nodes": [
			{"feature": 0, "threshold": 6.5, "left": 1, "right": 2, "leaf": 0, "isLeaf": false},
			{"feature": 0, "threshold": 0, "left": 0, "right": 0, "leaf": 10, "isLeaf": true},
			{"feature": 0, "threshold": 0, "left": 0, "right": 0, "leaf": -5, "isLeaf": true}
		]}
	]
}`

// writeArtifactSet writes a coherent artifact set into dir.
func writeArtifactSet(t *testing.T, dir, version string) {
	t.Helper()
	writeArtifactFile(t, dir, MetadataFile, testMetadataJSON(version))
	writeArtifactFile(t, dir, EncodersFile, testEncodersJSON)
	writeArtifactFile(t, dir, RegressorFile, testRegressorJSON)
}

func writeArtifactFile(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	require.NoError(t, err)
}
