package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSpecies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		species string
		genus   string
		want    string
	}{
		{"genus prefix removed", "Acineta antioquiae", "Acineta", "antioquiae"},
		{"genus prefix removed again", "Cattleya maxima", "Cattleya", "maxima"},
		{"already bare", "antioquiae", "Acineta", "antioquiae"},
		{"prefix match is case-insensitive", "cattleya Warscewiczii", "Cattleya", "Warscewiczii"},
		{"whitespace trimmed", "  Vanda coerulea  ", "Vanda", "coerulea"},
		{"empty genus keeps species", "  maxima  ", "", "maxima"},
		{"unrelated genus untouched", "Cattleya maxima", "Vanda", "Cattleya maxima"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeSpecies(tt.species, tt.genus))
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"separators collapsed and zone digit mapped", "V-0 - M-1A - P-0", "V-0 M-1A P-A"},
		{"letter zone untouched", "V-1 - M-10B - P-B", "V-1 M-10B P-B"},
		{"already normalized", "V-2 M-5A", "V-2 M-5A"},
		{"highest digit maps to J", "P-9", "P-J"},
		{"long position token untouched", "P-12", "P-12"},
		{"plain name trimmed", "  Vivero 1  ", "Vivero 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeLocation(tt.location))
		})
	}
}

func TestNormalizeResponsible(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ADMINISTRADOR SISTEMA", NormalizeResponsible("Administrador Sistema"))
	assert.Equal(t, "ALEX PÉREZ", NormalizeResponsible("alex pérez"))
	assert.Equal(t, "ANA", NormalizeResponsible("  ana  "))
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  string
	}{
		{"self", TypeSelf},
		{"Hybrid", TypeHybrid},
		{"Hibrido", TypeHybrid},
		{"híbrido", TypeHybrid},
		{"sibling", TypeSibbling},
		{"SIBBLING", TypeSibbling},
		{"  Self  ", TypeSelf},
		{"clon", "CLON"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeType(tt.value))
		})
	}
}

func TestFoldMatchesAccentedCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Fold("HÍBRIDO"), Fold("híbrido"))

	// Folding is case mapping, not accent stripping.
	assert.NotEqual(t, Fold("calido"), Fold("cálido"))
}
