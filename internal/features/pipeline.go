package features

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// EventDateLayout is the wire format for event and outcome dates.
const EventDateLayout = time.DateOnly

// Canonical training column names shared by the prediction domains. The
// artifact metadata decides which of these a model actually consumes.
const (
	ColumnGenus       = "genero"
	ColumnSpecies     = "especie"
	ColumnClimate     = "clima"
	ColumnLocation    = "ubicacion"
	ColumnResponsible = "responsable"
	ColumnType        = "Tipo"
	ColumnQuantity    = "cantidad"
	ColumnAvailable   = "disponible"
)

// encodedSuffix marks the features that come out of a categorical encoder,
// Tipo_encoded reads from the Tipo column's encoder.
const encodedSuffix = "_encoded"

// Input is the raw material for one feature vector: training column values
// keyed by their training names plus the event date.
type Input struct {
	// Columns holds request values keyed by training column name. Values
	// arrive as text, numeric columns are coerced during assembly.
	Columns map[string]string
	// EventDate is the pollination or sowing date in YYYY-MM-DD form. It
	// satisfies the date column of the required input set.
	EventDate string
}

// Vector is a built feature vector plus the bookkeeping the engine folds
// into the prediction result.
type Vector struct {
	// Values follows the artifact feature list exactly, same names, same
	// order, same length.
	Values []float64
	// NewCategories counts categorical values outside the training
	// vocabulary, it drives the confidence penalty.
	NewCategories int
	// Adjustments records the normalizations that rewrote an input value,
	// in column order.
	Adjustments []string
	// EventDate is the parsed event date.
	EventDate time.Time
}

// Builder assembles feature vectors against one loaded model. The model
// bundle is immutable, a Builder is safe for concurrent use.
type Builder struct {
	model *artifact.Model
}

// NewBuilder returns a Builder over a loaded artifact bundle.
func NewBuilder(model *artifact.Model) *Builder {
	return &Builder{model: model}
}

// Build validates the input, derives temporal and encoded features and
// assembles them in the order the model was trained with. Out-of-vocabulary
// categorical values are counted, never rejected.
func (b *Builder) Build(in Input) (*Vector, error) {
	if err := b.checkRequired(in); err != nil {
		return nil, err
	}

	eventDate, err := ParseEventDate(in.EventDate)
	if err != nil {
		return nil, err
	}

	columns, adjustments := b.normalizeColumns(in)
	temporal := NewTemporal(eventDate)

	vec := &Vector{
		Values:      make([]float64, 0, len(b.model.Metadata.FeatureList)),
		Adjustments: adjustments,
		EventDate:   eventDate,
	}

	for _, name := range b.model.Metadata.FeatureList {
		if v, ok := temporal.resolve(name); ok {
			vec.Values = append(vec.Values, v)
			continue
		}

		if column, ok := strings.CutSuffix(name, encodedSuffix); ok {
			enc, ok := b.model.Encoders[column]
			if !ok {
				return nil, errors.Newf("feature %q references column %q which has no encoder", name, column).
					Component("features").
					Category(errors.CategoryArtifactCorrupt).
					Context("domain", b.model.Domain).
					Context("feature", name).
					Build()
			}
			code, found := enc.Lookup(columns[column])
			if !found {
				vec.NewCategories++
			}
			vec.Values = append(vec.Values, float64(code))
			continue
		}

		raw, ok := in.Columns[name]
		if !ok && !b.model.Metadata.IsRequired(name) {
			return nil, errors.Newf("feature %q is not derivable from the input columns", name).
				Component("features").
				Category(errors.CategoryArtifactCorrupt).
				Context("domain", b.model.Domain).
				Context("feature", name).
				Build()
		}
		vec.Values = append(vec.Values, coerceNumeric(raw))
	}

	return vec, nil
}

// checkRequired verifies every required input column carries a non-empty
// value. Date columns (fecha* by training convention) are satisfied by the
// event date field.
func (b *Builder) checkRequired(in Input) error {
	var missing []string
	for _, column := range b.model.Metadata.InputColumnsRequired {
		value := in.Columns[column]
		if isDateColumn(column) {
			value = in.EventDate
		}
		if strings.TrimSpace(value) == "" {
			missing = append(missing, column)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	return errors.Newf("missing required fields: %s", strings.Join(missing, ", ")).
		Component("features").
		Category(errors.CategoryMissingFields).
		Context("domain", b.model.Domain).
		Context("missing_fields", strings.Join(missing, ", ")).
		Build()
}

// normalizeColumns applies the domain normalizations to the raw column
// values. Adjustments are recorded whenever a normalization changed the
// trimmed value, in sorted column order so output is deterministic.
func (b *Builder) normalizeColumns(in Input) (map[string]string, []string) {
	columns := make(map[string]string, len(in.Columns))
	var adjustments []string

	for _, column := range slices.Sorted(maps.Keys(in.Columns)) {
		raw := in.Columns[column]
		value := strings.TrimSpace(raw)

		switch column {
		case ColumnSpecies:
			value = NormalizeSpecies(raw, in.Columns[ColumnGenus])
		case ColumnLocation:
			value = NormalizeLocation(raw)
		case ColumnResponsible:
			value = NormalizeResponsible(raw)
		case ColumnType:
			value = NormalizeType(raw)
		}

		if value != strings.TrimSpace(raw) {
			adjustments = append(adjustments, fmt.Sprintf("%s: %q -> %q", column, strings.TrimSpace(raw), value))
		}
		columns[column] = value
	}

	return columns, adjustments
}

// ParseEventDate parses a YYYY-MM-DD date value.
func ParseEventDate(value string) (time.Time, error) {
	t, err := time.Parse(EventDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errors.New(err).
			Component("features").
			Category(errors.CategoryInvalidDate).
			Context("value", value).
			Build()
	}
	return t, nil
}

// isDateColumn reports whether a required column names the event date
// rather than a request value, fechapol for pollination and fecha_siembra
// for germination.
func isDateColumn(column string) bool {
	return strings.HasPrefix(Fold(column), "fecha")
}

// coerceNumeric turns a raw column value into the integer-valued float the
// regressors were trained on. Absent and unparseable values fall back to 0.
func coerceNumeric(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return float64(n)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return math.Trunc(f)
	}
	return 0
}
