// engine.go staged prediction engine over per-domain artifact stores
package forecast

import (
	"context"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mgarzon/floracast-go/internal/artifact"
	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/features"
)

// domainRuntime bundles the per-domain moving parts: the artifact store,
// the optional result cache and the optional directory watcher.
type domainRuntime struct {
	store   *artifact.Store
	cache   *ResultCache
	watcher *artifact.Watcher
}

// Engine computes staged predictions for the configured domains. The
// initial stage estimates from the heuristic baselines without touching
// artifacts, the refined stage runs the trained regressor and validation
// scores a refined prediction once the outcome date is observed.
//
// Initial and Refined never return a Go error. Failures come back as a
// result object carrying an error code and zero confidence, so batch
// callers handle per-item failures uniformly.
type Engine struct {
	settings  *conf.Settings
	policy    conf.ConfidencePolicy
	baselines *Baselines
	domains   map[string]*domainRuntime
}

// New builds an engine from settings. Artifact stores are created for
// every configured domain but nothing is loaded from disk until the
// first refined prediction needs a model.
func New(settings *conf.Settings) (*Engine, error) {
	if settings.Forecast.Debug {
		forecastLevelVar.Set(slog.LevelDebug)
	}

	baselines, err := LoadBaselines(settings.Forecast.BaselinesFile)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		settings:  settings,
		policy:    settings.Forecast.Confidence,
		baselines: baselines,
		domains:   make(map[string]*domainRuntime),
	}
	for _, name := range settings.DomainNames() {
		dc, _ := settings.Domain(name)
		rt := &domainRuntime{store: artifact.NewStore(name, dc)}
		if settings.Forecast.Cache.Enabled {
			rt.cache = newResultCache(name, settings.Forecast.Cache.TTL)
			rt.store.OnReload(rt.cache.Flush)
		}
		e.domains[name] = rt
	}
	if len(e.domains) == 0 {
		return nil, errors.Newf("no prediction domains configured").
			Component("forecast").
			Category(errors.CategoryConfiguration).
			Build()
	}

	forecastLogger.Info("forecast engine ready",
		"domains", e.Domains(),
		"cache_enabled", settings.Forecast.Cache.Enabled,
		"cache_ttl", settings.Forecast.Cache.TTL)
	return e, nil
}

// Domains returns the configured domain names in sorted order.
func (e *Engine) Domains() []string {
	return slices.Sorted(maps.Keys(e.domains))
}

// ModelInfo reports the artifact store state for a domain without
// triggering a load.
func (e *Engine) ModelInfo(domain string) (artifact.Info, error) {
	rt, err := e.runtime(domain)
	if err != nil {
		return artifact.Info{}, err
	}
	return rt.store.ModelInfo(), nil
}

// Reload forces a fresh artifact load for a domain. The result cache of
// the domain is flushed through the store reload hook.
func (e *Engine) Reload(domain string) error {
	rt, err := e.runtime(domain)
	if err != nil {
		return err
	}
	return rt.store.Reload()
}

// StartWatchers begins artifact directory watching for every domain. It
// is a no-op unless enabled in settings. Watcher-triggered reloads flush
// the domain result cache like explicit reloads do.
func (e *Engine) StartWatchers(ctx context.Context) error {
	if !e.settings.Forecast.Watcher.Enabled {
		return nil
	}
	for _, name := range e.Domains() {
		rt := e.domains[name]
		if rt.watcher != nil {
			continue
		}
		w, err := artifact.NewWatcher(rt.store)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		rt.watcher = w
	}
	return nil
}

// Close stops the artifact watchers. Stores and caches need no teardown.
func (e *Engine) Close() {
	for _, rt := range e.domains {
		if rt.watcher != nil {
			rt.watcher.Stop()
			rt.watcher = nil
		}
	}
}

// Initial computes the heuristic first-stage estimate. It needs no
// artifacts and no event date, only the species or genus of the request.
// A cached result for the same request fingerprint is returned as is,
// including one already refined by a later stage.
func (e *Engine) Initial(domain string, req *PredictionRequest) *PredictionResult {
	start := time.Now()
	rt, err := e.runtime(domain)
	if err != nil {
		return e.fail(domain, StageInitial, req, start, err)
	}
	if !req.HasSubject() {
		return e.fail(domain, StageInitial, req, start, errMissingSubject())
	}

	var key string
	if rt.cache != nil {
		key = rt.cache.Key(req)
		if cached, ok := rt.cache.Get(key); ok {
			e.observe(domain, StageInitial, "cached", start, cached.Confidence)
			return cached
		}
	}

	days, speciesKnown := e.baselines.Estimate(domain, req)
	r := newResult(domain, StageInitial, req)
	r.EstimatedDays = days
	r.Confidence = initialConfidence(e.policy, speciesKnown)
	r.ConfidenceLevel = confidenceLevel(r.Confidence)

	if rt.cache != nil {
		rt.cache.Set(key, r)
	}
	e.observe(domain, StageInitial, "success", start, r.Confidence)
	forecastLogger.Debug("initial estimate computed",
		"domain", domain,
		"species", req.Species,
		"genus", req.Genus,
		"estimated_days", days,
		"species_known", speciesKnown,
		"confidence", r.Confidence)
	return r
}

// Refined computes the model-based second-stage estimate. The event date
// is required here, the regressor features are all derived from it. A
// cached entry only serves a refined request when it is itself refined
// and anchored on the same event date, otherwise it is recomputed and
// overwritten so the refined result supersedes the initial one under the
// same fingerprint.
//
// When prior carries the clean initial estimate of the same request, the
// result reports the day difference against it.
func (e *Engine) Refined(domain string, req *PredictionRequest, prior *PredictionResult) *PredictionResult {
	start := time.Now()
	rt, err := e.runtime(domain)
	if err != nil {
		return e.fail(domain, StageRefined, req, start, err)
	}
	if !req.HasSubject() {
		return e.fail(domain, StageRefined, req, start, errMissingSubject())
	}

	var key string
	if rt.cache != nil {
		key = rt.cache.Key(req)
		if cached, ok := rt.cache.Get(key); ok &&
			cached.Stage == StageRefined &&
			cached.SourceDate == strings.TrimSpace(req.EventDate) {
			e.observe(domain, StageRefined, "cached", start, cached.Confidence)
			return cached
		}
	}

	model, err := rt.store.Acquire()
	if err != nil {
		return e.fail(domain, StageRefined, req, start, err)
	}
	vec, err := features.NewBuilder(model).Build(requestInput(req))
	if err != nil {
		return e.fail(domain, StageRefined, req, start, err)
	}

	days := int(math.Round(model.Regressor.Predict(vec.Values)))
	if days < 1 {
		days = 1
	}

	r := newResult(domain, StageRefined, req)
	r.EstimatedDays = days
	r.SourceDate = formatDate(vec.EventDate)
	r.EstimatedTargetDate = formatDate(vec.EventDate.AddDate(0, 0, days))
	r.NewCategoryCount = vec.NewCategories
	r.Confidence = refinedConfidence(e.policy, vec.NewCategories)
	r.ConfidenceLevel = confidenceLevel(r.Confidence)
	r.Refinement = refinementOf(vec.Adjustments, days, prior)

	if rt.cache != nil {
		rt.cache.Set(key, r)
	}
	e.observe(domain, StageRefined, "success", start, r.Confidence)
	if m := getMetrics(); m != nil {
		m.RecordNewCategories(domain, vec.NewCategories)
	}
	forecastLogger.Debug("refined estimate computed",
		"domain", domain,
		"species", req.Species,
		"genus", req.Genus,
		"estimated_days", days,
		"target_date", r.EstimatedTargetDate,
		"new_categories", vec.NewCategories,
		"confidence", r.Confidence)
	return r
}

// Validate scores a refined prediction against the observed outcome
// date using the configured precision policy. Unlike the prediction
// stages it returns a real error, a validation that cannot run has no
// meaningful result object.
func (e *Engine) Validate(prior *PredictionResult, observedDate string) (*ValidationResult, error) {
	vr, err := Validate(prior, observedDate, e.settings.Forecast.Precision.ScaleFactor)
	if err != nil {
		forecastLogger.Error("validation failed",
			"observed_date", observedDate,
			"error", err)
		return nil, err
	}
	if m := getMetrics(); m != nil {
		m.RecordValidation(prior.Domain, vr.QualityLabel)
	}
	forecastLogger.Debug("prediction validated",
		"domain", prior.Domain,
		"precision", vr.PrecisionPercent,
		"quality", vr.QualityLabel,
		"trend", vr.Trend)
	return vr, nil
}

// runtime resolves a domain name to its runtime. An unknown domain is an
// absent artifact set from the caller's point of view.
func (e *Engine) runtime(domain string) (*domainRuntime, error) {
	rt, ok := e.domains[domain]
	if !ok {
		return nil, errors.Newf("unknown prediction domain: %s", domain).
			Component("forecast").
			Category(errors.CategoryArtifactMissing).
			Context("domain", domain).
			Build()
	}
	return rt, nil
}

func errMissingSubject() error {
	return errors.Newf("missing required fields: species or genus").
		Component("forecast").
		Category(errors.CategoryMissingFields).
		Build()
}

// requestInput maps a request onto the column names the training data
// used. Extra columns pass through but never shadow the canonical ones.
func requestInput(req *PredictionRequest) features.Input {
	columns := map[string]string{
		features.ColumnSpecies:     req.Species,
		features.ColumnGenus:       req.Genus,
		features.ColumnClimate:     req.Climate,
		features.ColumnLocation:    req.Location,
		features.ColumnResponsible: req.Responsible,
		features.ColumnType:        req.PollinationType,
		features.ColumnQuantity:    strconv.Itoa(req.Quantity),
		features.ColumnAvailable:   strconv.Itoa(req.Availability),
	}
	for k, v := range req.Extra {
		if _, exists := columns[k]; !exists {
			columns[k] = v
		}
	}
	return features.Input{Columns: columns, EventDate: req.EventDate}
}

// refinementOf assembles the refinement block. The prior is only
// consulted when it is a clean initial estimate.
func refinementOf(adjustments []string, days int, prior *PredictionResult) *Refinement {
	ref := &Refinement{AppliedAdjustments: adjustments}
	if prior != nil && !prior.IsError() && prior.Stage == StageInitial {
		initial := prior.EstimatedDays
		diff := days - initial
		ref.InitialEstimatedDays = &initial
		ref.DifferenceVsInitial = &diff
	}
	if len(ref.AppliedAdjustments) == 0 && ref.InitialEstimatedDays == nil {
		return nil
	}
	return ref
}

// fail wraps a typed failure as an error result and records it.
func (e *Engine) fail(domain, stage string, req *PredictionRequest, start time.Time, err error) *PredictionResult {
	r := errorResult(domain, stage, req, err)
	e.observe(domain, stage, "error", start, 0)
	if m := getMetrics(); m != nil {
		m.RecordError(domain, stage, r.ErrorCode)
	}
	forecastLogger.Error("prediction failed",
		"domain", domain,
		"stage", stage,
		"code", r.ErrorCode,
		"error", err)
	return r
}

func (e *Engine) observe(domain, stage, status string, start time.Time, confidence float64) {
	if m := getMetrics(); m != nil {
		m.RecordPrediction(domain, stage, status)
		m.RecordDuration(domain, stage, time.Since(start).Seconds())
		if status == "success" {
			m.RecordConfidence(domain, stage, confidence)
		}
	}
}
