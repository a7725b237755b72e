// encoders.go label encoder artifacts for categorical input columns
package artifact

import (
	"encoding/json"
	"fmt"
)

// Encoder maps the known values of one categorical column to integer codes.
// The code of a class is its index in the exported classes array, matching
// what the trainer fed the regressor. Values outside the vocabulary get
// UnknownCode, one past the last known class.
type Encoder struct {
	Classes []string
	index   map[string]int
}

// Lookup returns the code for a value and whether the value was part of the
// training vocabulary. Callers decide how to treat unknown values, the
// encoder itself never substitutes.
func (e *Encoder) Lookup(value string) (code int, found bool) {
	code, found = e.index[value]
	if !found {
		return e.UnknownCode(), false
	}
	return code, true
}

// UnknownCode returns the fallback code for out-of-vocabulary values.
func (e *Encoder) UnknownCode() int {
	return len(e.Classes)
}

// EncoderSet holds the encoders of one domain keyed by column name.
type EncoderSet map[string]*Encoder

// encoderDump matches the JSON shape the training pipeline exports,
// one entry per categorical column.
type encoderDump struct {
	Classes []string `json:"classes"`
}

// ParseEncoders decodes and validates an encoders artifact.
func ParseEncoders(data []byte) (EncoderSet, error) {
	var dump map[string]encoderDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("invalid encoders JSON: %w", err)
	}
	if len(dump) == 0 {
		return nil, fmt.Errorf("encoders artifact declares no columns")
	}

	set := make(EncoderSet, len(dump))
	for column, d := range dump {
		if column == "" {
			return nil, fmt.Errorf("encoders artifact contains an empty column name")
		}
		if len(d.Classes) == 0 {
			return nil, fmt.Errorf("encoder for column %q has no classes", column)
		}

		enc := &Encoder{
			Classes: d.Classes,
			index:   make(map[string]int, len(d.Classes)),
		}
		for i, class := range d.Classes {
			if _, dup := enc.index[class]; dup {
				return nil, fmt.Errorf("encoder for column %q has duplicate class %q", column, class)
			}
			enc.index[class] = i
		}
		set[column] = enc
	}

	return set, nil
}
