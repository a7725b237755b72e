package forecast

import (
	_ "embed"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/features"
)

//go:embed baselines.yaml
var defaultBaselinesYAML []byte

// climateWords maps the Spanish climate words of the records onto the
// legacy letter codes. The word vocabulary is fixed, the factors behind
// the codes come from the baseline table.
var climateWords = map[string]string{
	"calido":     "C",
	"cálido":     "C",
	"caliente":   "C",
	"frio":       "W",
	"frío":       "W",
	"intermedio": "I",
	"templado":   "I",
}

// resolveClimateCode normalizes a climate value to a letter code. Accepts
// the codes themselves in any case and the word forms.
func resolveClimateCode(value string) (string, bool) {
	v := features.Fold(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	if code, ok := climateWords[v]; ok {
		return code, true
	}
	code := strings.ToUpper(v)
	switch code {
	case "C", "W", "I", "IW", "IC":
		return code, true
	}
	return "", false
}

// Baseline is one row of the heuristic table: a day count, a
// multiplicative adjustment and optionally the climate the species
// prefers, used when the request does not state one.
type Baseline struct {
	Days    int     `yaml:"days"`
	Factor  float64 `yaml:"factor"`
	Climate string  `yaml:"climate,omitempty"`
}

// DomainBaselines holds the table of one prediction domain.
type DomainBaselines struct {
	Default Baseline            `yaml:"default"`
	Genera  map[string]Baseline `yaml:"genera"`
	Species map[string]Baseline `yaml:"species"`
}

// LocationFactor pairs a location name with its adjustment. Locations are
// an ordered list because they match as substrings and the first match
// wins.
type LocationFactor struct {
	Name   string  `yaml:"name"`
	Factor float64 `yaml:"factor"`
}

// Baselines is the heuristic reference table behind the initial stage.
// Lookups are Unicode case-insensitive.
type Baselines struct {
	Domains   map[string]DomainBaselines `yaml:"domains"`
	Climates  map[string]float64         `yaml:"climates"`
	Locations []LocationFactor           `yaml:"locations"`
	Types     map[string]float64         `yaml:"types"`

	folded map[string]foldedDomain
}

type foldedDomain struct {
	def     Baseline
	genera  map[string]Baseline
	species map[string]Baseline
}

// globalDefault backs estimates for a domain the table does not carry.
var globalDefault = Baseline{Days: 60, Factor: 1.0}

// LoadBaselines parses the embedded baseline table, or the file at path
// when one is configured.
func LoadBaselines(path string) (*Baselines, error) {
	data := defaultBaselinesYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.New(err).
				Component("forecast").
				Category(errors.CategoryConfiguration).
				Context("baselines_file", path).
				Build()
		}
	}

	var b Baselines
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, errors.New(err).
			Component("forecast").
			Category(errors.CategoryConfiguration).
			Context("baselines_file", path).
			Build()
	}
	if len(b.Domains) == 0 {
		return nil, errors.Newf("baseline table declares no domains").
			Component("forecast").
			Category(errors.CategoryConfiguration).
			Build()
	}
	for domain, d := range b.Domains {
		if d.Default.Days < 1 {
			return nil, errors.Newf("baseline table for domain %s has no usable default", domain).
				Component("forecast").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	b.fold()
	return &b, nil
}

// fold builds the case-insensitive lookup indexes.
func (b *Baselines) fold() {
	b.folded = make(map[string]foldedDomain, len(b.Domains))
	for domain, d := range b.Domains {
		fd := foldedDomain{
			def:     d.Default,
			genera:  make(map[string]Baseline, len(d.Genera)),
			species: make(map[string]Baseline, len(d.Species)),
		}
		for name, bl := range d.Genera {
			fd.genera[features.Fold(name)] = bl
		}
		for name, bl := range d.Species {
			fd.species[features.Fold(name)] = bl
		}
		b.folded[features.Fold(domain)] = fd
	}
}

// Estimate computes the heuristic day count for a request: the baseline
// resolved species first, genus second, domain default last, multiplied by
// the species factor and the climate, location and type factors.
// speciesKnown reports whether the species value itself hit the table.
func (b *Baselines) Estimate(domain string, req *PredictionRequest) (days int, speciesKnown bool) {
	base, speciesKnown := b.baseline(domain, req.Species, req.Genus)

	climate := strings.TrimSpace(req.Climate)
	if climate == "" {
		climate = base.Climate
	}

	estimate := float64(base.Days) * base.Factor *
		b.climateFactor(climate) *
		b.locationFactor(req.Location) *
		b.typeFactor(req.PollinationType)

	return max(1, int(math.Round(estimate))), speciesKnown
}

// baseline resolves the table row for a species/genus pair. The named
// species wins, then the genus, then the domain default. Both lookups
// also try the genus table since the records sometimes carry the genus
// name in the species field and vice versa.
func (b *Baselines) baseline(domain, species, genus string) (Baseline, bool) {
	d, ok := b.folded[features.Fold(domain)]
	if !ok {
		return globalDefault, false
	}

	if s := features.Fold(strings.TrimSpace(species)); s != "" {
		if bl, ok := d.species[s]; ok {
			return bl, true
		}
		if bl, ok := d.genera[s]; ok {
			return bl, true
		}
	}
	if g := features.Fold(strings.TrimSpace(genus)); g != "" {
		if bl, ok := d.species[g]; ok {
			return bl, false
		}
		if bl, ok := d.genera[g]; ok {
			return bl, false
		}
	}
	return d.def, false
}

// climateFactor resolves a climate value (code or word) to its factor.
// Unknown and absent climates are neutral.
func (b *Baselines) climateFactor(climate string) float64 {
	code, ok := resolveClimateCode(climate)
	if !ok {
		return 1.0
	}
	if f, ok := b.Climates[code]; ok {
		return f
	}
	return 1.0
}

// locationFactor matches the known location names as substrings of the
// folded location, the way the records embed them in longer labels. First
// match in table order wins.
func (b *Baselines) locationFactor(location string) float64 {
	loc := features.Fold(features.NormalizeLocation(location))
	if loc == "" {
		return 1.0
	}
	for _, lf := range b.Locations {
		if strings.Contains(loc, features.Fold(lf.Name)) {
			return lf.Factor
		}
	}
	return 1.0
}

// typeFactor resolves the normalized pollination type to its factor.
func (b *Baselines) typeFactor(pollinationType string) float64 {
	t := features.NormalizeType(pollinationType)
	if t == "" {
		return 1.0
	}
	if f, ok := b.Types[t]; ok {
		return f
	}
	return 1.0
}
