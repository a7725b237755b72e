//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// SortTyped flags the pre-generics sort helpers.
//
//	sort.Strings(domains)  ->  slices.Sort(domains)
//
// See: https://pkg.go.dev/slices#Sort
func SortTyped(m dsl.Matcher) {
	m.Match(
		`sort.Ints($s)`,
	).
		Report("use slices.Sort($s) instead of sort.Ints (Go 1.21+)").
		Suggest("slices.Sort($s)")

	m.Match(
		`sort.Strings($s)`,
	).
		Report("use slices.Sort($s) instead of sort.Strings (Go 1.21+)").
		Suggest("slices.Sort($s)")

	m.Match(
		`sort.Float64s($s)`,
	).
		Report("use slices.Sort($s) instead of sort.Float64s (Go 1.21+)").
		Suggest("slices.Sort($s)")
}

// SlicesClone flags manual clone idioms. Feature vectors and domain
// lists get cloned at API boundaries, slices.Clone names the intent.
//
// See: https://pkg.go.dev/slices#Clone
func SlicesClone(m dsl.Matcher) {
	m.Match(
		`append([]$typ(nil), $s...)`,
	).
		Report("use slices.Clone($s) instead of append([]$typ(nil), $s...) (Go 1.21+)")

	m.Match(
		`append([]$typ{}, $s...)`,
	).
		Report("use slices.Clone($s) instead of append([]$typ{}, $s...) (Go 1.21+)")

	m.Match(
		`append($s[:0:0], $s...)`,
	).
		Report("use slices.Clone($s) instead of append($s[:0:0], $s...) (Go 1.21+)")
}

// MapKeysCollection flags manual key collection loops.
//
//	keys := make([]string, 0, len(m))
//	for k := range m { keys = append(keys, k) }
//
// becomes slices.Collect(maps.Keys(m)), or slices.Sorted(maps.Keys(m))
// when the caller sorts right after.
//
// See: https://pkg.go.dev/maps#Keys
func MapKeysCollection(m dsl.Matcher) {
	m.Match(
		`for $k := range $m { $keys = append($keys, $k) }`,
	).
		Report("use slices.Collect(maps.Keys($m)) to collect map keys (Go 1.23+)")

	m.Match(
		`for $k, _ := range $m { $keys = append($keys, $k) }`,
	).
		Report("use slices.Collect(maps.Keys($m)) to collect map keys (Go 1.23+)")
}

// MapValuesCollection is the value-side twin of MapKeysCollection.
func MapValuesCollection(m dsl.Matcher) {
	m.Match(
		`for _, $v := range $m { $values = append($values, $v) }`,
	).
		Report("use slices.Collect(maps.Values($m)) to collect map values (Go 1.23+)")
}
