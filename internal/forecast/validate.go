package forecast

import (
	"strings"
	"time"

	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/features"
)

// Validate scores a refined prediction against the observed outcome date.
// Pure and idempotent, the same inputs always produce the same scores.
// Unlike the prediction stages validation always returns a real error, a
// partial validation outcome has no meaning.
func Validate(prior *PredictionResult, observedDate string, scaleFactor float64) (*ValidationResult, error) {
	if err := usablePrior(prior); err != nil {
		return nil, err
	}
	if strings.TrimSpace(observedDate) == "" {
		return nil, errors.Newf("no observed outcome date supplied").
			Component("forecast").
			Category(errors.CategoryMissingOutcome).
			Context("domain", prior.Domain).
			Build()
	}

	observed, err := features.ParseEventDate(observedDate)
	if err != nil {
		return nil, err
	}

	target, err := features.ParseEventDate(prior.EstimatedTargetDate)
	if err != nil {
		return nil, unusablePriorError(prior, "estimated target date does not parse")
	}
	source, err := features.ParseEventDate(prior.SourceDate)
	if err != nil {
		return nil, unusablePriorError(prior, "source date does not parse")
	}

	differenceDays := daysBetween(target, observed)
	if differenceDays < 0 {
		differenceDays = -differenceDays
	}

	precision := 100 - float64(differenceDays)*scaleFactor
	if precision < 0 {
		precision = 0
	}

	trend := TrendExact
	switch {
	case target.After(observed):
		trend = TrendOverestimate
	case observed.After(target):
		trend = TrendUnderestimate
	}

	return &ValidationResult{
		PrecisionPercent: precision,
		ActualDays:       daysBetween(source, observed),
		DifferenceDays:   differenceDays,
		QualityLabel:     qualityLabel(precision),
		Trend:            trend,
		EstimatedDate:    prior.EstimatedTargetDate,
		ObservedDate:     formatDate(observed),
		ValidatedAt:      time.Now(),
	}, nil
}

// usablePrior checks that the prior result is a clean refined prediction.
func usablePrior(prior *PredictionResult) error {
	switch {
	case prior == nil:
		return errors.Newf("no prior prediction supplied").
			Component("forecast").
			Category(errors.CategoryMissingPrediction).
			Build()
	case prior.IsError():
		return unusablePriorError(prior, "prior prediction carries an error")
	case prior.Stage != StageRefined:
		return unusablePriorError(prior, "prior prediction is not a refined estimate")
	case prior.EstimatedTargetDate == "":
		return unusablePriorError(prior, "prior prediction has no estimated target date")
	}
	return nil
}

func unusablePriorError(prior *PredictionResult, reason string) error {
	return errors.Newf("%s", reason).
		Component("forecast").
		Category(errors.CategoryMissingPrediction).
		Context("domain", prior.Domain).
		Context("stage", prior.Stage).
		Build()
}

// qualityLabel buckets a precision percentage.
func qualityLabel(precision float64) string {
	switch {
	case precision >= 90:
		return QualityExcellent
	case precision >= 70:
		return QualityGood
	case precision >= 40:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

// daysBetween counts whole days from a to b. Both values are calendar
// dates at midnight UTC, the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
