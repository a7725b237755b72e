// Package features turns prediction requests into the numeric vectors the
// trained regressors consume: input validation, value normalization,
// temporal and cyclical derivation, categorical encoding and ordered
// assembly against the artifact metadata.
package features

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Pollination type values after normalization. Historical records carry
// Spanish and misspelled variants, the training data uses these three.
const (
	TypeSelf     = "SELF"
	TypeSibbling = "SIBBLING"
	TypeHybrid   = "HYBRID"
)

// typeAliases maps legacy spellings onto the vocabulary the encoders were
// trained with. SIBBLING is the historical (misspelled) form present in the
// training data, the correctly spelled SIBLING maps onto it.
var typeAliases = map[string]string{
	"HYBRID":   TypeHybrid,
	"HIBRIDO":  TypeHybrid,
	"HÍBRIDO":  TypeHybrid,
	"SELF":     TypeSelf,
	"SIBBLING": TypeSibbling,
	"SIBLING":  TypeSibbling,
}

// Fold case-folds a string for case-insensitive comparison. Spanish labels
// carry accented characters, ASCII lowering is not enough.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// upper uppercases with full Unicode case mapping so accented values
// ("híbrido") round-trip the way the training exports did.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// NormalizeSpecies strips a leading genus from a species value. Records
// store the species sometimes bare ("warscewiczii") and sometimes with the
// genus repeated ("Cattleya warscewiczii"), the model was trained on the
// bare form.
func NormalizeSpecies(species, genus string) string {
	s := strings.TrimSpace(species)
	g := strings.TrimSpace(genus)
	if g == "" || len(s) < len(g) {
		return s
	}
	if Fold(s[:len(g)]) != Fold(g) {
		return s
	}
	return strings.TrimSpace(s[len(g):])
}

// NormalizeLocation rewrites a location to the form the model was trained
// on: " - " separators collapse to single spaces and legacy numeric
// position codes map to letters (P-0 → P-A, P-1 → P-B, ...).
func NormalizeLocation(location string) string {
	loc := strings.TrimSpace(location)
	loc = strings.ReplaceAll(loc, " - ", " ")

	if !strings.Contains(loc, "P-") {
		return loc
	}

	parts := strings.Fields(loc)
	for i, part := range parts {
		if len(part) == 3 && strings.HasPrefix(part, "P-") {
			if d := part[2]; d >= '0' && d <= '9' {
				parts[i] = "P-" + string(rune('A'+d-'0'))
			}
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeResponsible uppercases the responsible name, matching how the
// training exports stored it.
func NormalizeResponsible(responsible string) string {
	return upper(strings.TrimSpace(responsible))
}

// NormalizeType uppercases the pollination type and maps legacy aliases
// onto the trained vocabulary. Unknown values pass through uppercased, the
// encoder treats them as out-of-vocabulary downstream.
func NormalizeType(pollinationType string) string {
	t := upper(strings.TrimSpace(pollinationType))
	if mapped, ok := typeAliases[t]; ok {
		return mapped
	}
	return t
}
