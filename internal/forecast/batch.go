// batch.go bounded-parallel batch prediction
package forecast

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgarzon/floracast-go/internal/cpuspec"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// BatchItem is one unit of batch work: a request routed to a prediction
// domain, with an optional explicit stage. Auto mode picks the refined
// stage when the request carries an event date.
type BatchItem struct {
	Domain  string             `json:"domain"`
	Stage   string             `json:"stage,omitempty"`
	Request *PredictionRequest `json:"request"`
}

// Batch runs items on a bounded worker pool. Results come back in input
// order and item failures stay inline as error results, one bad item
// never aborts the rest. The returned error is non-nil only when ctx is
// cancelled before all items ran, entries not processed are left nil.
func (e *Engine) Batch(ctx context.Context, items []BatchItem) ([]*PredictionResult, error) {
	results := make([]*PredictionResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	start := time.Now()
	workers := batchWorkers(e.settings.Forecast.Batch.Workers, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.runItem(&items[i])
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for _, r := range results {
		if r == nil || r.IsError() {
			failed++
		}
	}
	forecastLogger.Info("batch completed",
		"items", len(items),
		"failed", failed,
		"workers", workers,
		"duration_ms", time.Since(start).Milliseconds())
	return results, err
}

// runItem dispatches one batch item to its stage.
func (e *Engine) runItem(item *BatchItem) *PredictionResult {
	if item.Request == nil {
		return errorResult(item.Domain, StageInitial, nil, errMissingSubject())
	}
	stage := strings.TrimSpace(item.Stage)
	if stage == "" {
		stage = StageInitial
		if strings.TrimSpace(item.Request.EventDate) != "" {
			stage = StageRefined
		}
	}
	switch stage {
	case StageInitial:
		return e.Initial(item.Domain, item.Request)
	case StageRefined:
		return e.Refined(item.Domain, item.Request, nil)
	default:
		return errorResult(item.Domain, stage, item.Request,
			errors.Newf("unknown prediction stage: %s", stage).
				Component("forecast").
				Category(errors.CategoryMissingFields).
				Context("stage", stage).
				Build())
	}
}

// batchWorkers derives the worker limit: the configured override when
// positive, else the performance core count, never more than the item
// count.
func batchWorkers(override, itemCount int) int {
	n := override
	if n <= 0 {
		n = cpuspec.GetCPUSpec().OptimalWorkerCount()
	}
	if n < 1 {
		n = 1
	}
	return min(n, itemCount)
}
