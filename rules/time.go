//go:build ruleguard

// Package gorules holds custom golangci-lint rules, wired through the
// gocritic ruleguard checker. The rules push magic constants and
// pre-generics patterns toward their modern stdlib replacements.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TimeLayoutConstants flags magic date/time layout strings where a
// named constant exists. Event and outcome dates flow through layouts
// constantly in this codebase, the named forms keep them greppable.
//
//	t.Format("2006-01-02")          -> t.Format(time.DateOnly)
//	time.Parse("2006-01-02", s)     -> time.Parse(time.DateOnly, s)
//
// See: https://pkg.go.dev/time#pkg-constants
func TimeLayoutConstants(m dsl.Matcher) {
	m.Match(
		`$t.Format("2006-01-02 15:04:05")`,
	).
		Report(`use $t.Format(time.DateTime) instead of a magic layout string`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(
		`time.Parse("2006-01-02 15:04:05", $s)`,
	).
		Report(`use time.Parse(time.DateTime, $s) instead of a magic layout string`).
		Suggest(`time.Parse(time.DateTime, $s)`)

	m.Match(
		`$t.Format("2006-01-02")`,
	).
		Report(`use $t.Format(time.DateOnly) instead of a magic layout string`).
		Suggest(`$t.Format(time.DateOnly)`)

	m.Match(
		`time.Parse("2006-01-02", $s)`,
	).
		Report(`use time.Parse(time.DateOnly, $s) instead of a magic layout string`).
		Suggest(`time.Parse(time.DateOnly, $s)`)

	m.Match(
		`$t.Format("15:04:05")`,
	).
		Report(`use $t.Format(time.TimeOnly) instead of a magic layout string`).
		Suggest(`$t.Format(time.TimeOnly)`)

	m.Match(
		`time.Parse("15:04:05", $s)`,
	).
		Report(`use time.Parse(time.TimeOnly, $s) instead of a magic layout string`).
		Suggest(`time.Parse(time.TimeOnly, $s)`)
}

// DeferredTimeSince flags deferred time.Since calls, which measure the
// duration at defer time rather than at function exit. Prediction
// latency instrumentation is exactly where this bug likes to hide.
//
// Broken:
//
//	start := time.Now()
//	defer log.Info("done", "took", time.Since(start))  // always ~0
//
// Correct:
//
//	defer func() { log.Info("done", "took", time.Since(start)) }()
func DeferredTimeSince(m dsl.Matcher) {
	m.Match(
		`defer $fn(time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func()")

	m.Match(
		`defer $fn(time.Since($start), $*args)`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func()")

	m.Match(
		`defer $fn($arg, time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func()")

	m.Match(
		`defer $fn($arg1, $arg2, time.Since($start))`,
	).
		Report("time.Since($start) is evaluated at defer time, not function exit; wrap in func()")
}

// DeferredTimeNow is the same trap for time.Now.
func DeferredTimeNow(m dsl.Matcher) {
	m.Match(
		`defer $fn(time.Now())`,
	).
		Report("time.Now() is evaluated at defer time, not function exit; wrap in func() if you want exit time")

	m.Match(
		`defer $fn($*args, time.Now())`,
	).
		Report("time.Now() is evaluated at defer time, not function exit; wrap in func() if you want exit time")
}
