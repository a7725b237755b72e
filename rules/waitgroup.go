//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo flags the manual Add/Done dance that wg.Go replaced in
// Go 1.25. The worker pool and the metrics endpoint both run on wg.Go,
// new goroutines should not regress to the old shape.
//
// Old:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    work()
//	}()
//
// New:
//
//	wg.Go(work)
//
// See: https://pkg.go.dev/sync#WaitGroup.Go
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")

	m.Match(
		`go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of go func with defer $wg.Done() (Go 1.25+)")

	// Done at the end without defer leaks the count on panic.
	m.Match(
		`go func() { $*body; $wg.Done() }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of a trailing $wg.Done() call (Go 1.25+)")
}
