// Package forecast implements the staged prediction workflow for the
// propagation domains: heuristic initial estimates, model-refined
// estimates against the trained artifacts and validation of refined
// estimates once the observed outcome date is known.
package forecast

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/features"
)

// Stage labels of the prediction lifecycle, in the form the consuming
// service stores them.
const (
	StageInitial = "inicial"
	StageRefined = "refinada"
)

// Confidence level labels.
const (
	ConfidenceHigh   = "alta"
	ConfidenceMedium = "media"
	ConfidenceLow    = "baja"
)

// Quality labels for validated predictions.
const (
	QualityExcellent  = "Excelente"
	QualityGood       = "Buena"
	QualityAcceptable = "Aceptable"
	QualityPoor       = "Pobre"
)

// Trend labels for validated predictions.
const (
	TrendExact         = "exacta"
	TrendOverestimate  = "sobreestimada"
	TrendUnderestimate = "subestimada"
)

// Wire error codes carried by error results and validation failures.
const (
	CodeArtifactMissing   = "ArtifactMissing"
	CodeArtifactCorrupt   = "ArtifactCorrupt"
	CodeMissingFields     = "MissingRequiredFields"
	CodeInvalidDate       = "InvalidDateFormat"
	CodeMissingPrediction = "MissingOriginalPrediction"
	CodeMissingOutcome    = "MissingOutcomeDate"
)

// PredictionRequest is the inbound request shape. Species or genus is
// mandatory, everything else is optional and degrades the estimate rather
// than failing it. Climate accepts the legacy single-letter codes and the
// Spanish words the records use.
type PredictionRequest struct {
	Species         string            `json:"species" validate:"omitempty,max=120"`
	Genus           string            `json:"genus,omitempty" validate:"omitempty,max=120"`
	Climate         string            `json:"climate,omitempty" validate:"omitempty,climacode"`
	Location        string            `json:"location,omitempty" validate:"omitempty,max=200"`
	PollinationType string            `json:"pollinationType,omitempty" validate:"omitempty,max=40"`
	Quantity        int               `json:"quantity,omitempty" validate:"gte=0"`
	Availability    int               `json:"availability,omitempty" validate:"oneof=0 1"`
	EventDate       string            `json:"eventDate,omitempty"`
	Responsible     string            `json:"responsible,omitempty" validate:"omitempty,max=120"`
	Extra           map[string]string `json:"extra,omitempty"`
}

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	_ = requestValidate.RegisterValidation("climacode", validateClimateCode)
}

// validateClimateCode accepts the legacy letter codes and the word forms
// the climate table aliases.
func validateClimateCode(fl validator.FieldLevel) bool {
	_, ok := resolveClimateCode(fl.Field().String())
	return ok
}

// Validate checks the static field constraints. Presence of species/genus
// and date requirements are stage concerns checked by the engine.
func (r *PredictionRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return errors.New(err).
			Component("forecast").
			Category(errors.CategoryMissingFields).
			Context("stage", "request-validation").
			Build()
	}
	return nil
}

// HasSubject reports whether the request carries the mandatory species or
// genus value.
func (r *PredictionRequest) HasSubject() bool {
	return strings.TrimSpace(r.Species) != "" || strings.TrimSpace(r.Genus) != ""
}

// Refinement compares a refined estimate with the prior initial one and
// records the input rewrites applied on the way into the model.
type Refinement struct {
	AppliedAdjustments   []string `json:"appliedAdjustments,omitempty"`
	InitialEstimatedDays *int     `json:"initialEstimatedDays,omitempty"`
	DifferenceVsInitial  *int     `json:"differenceVsInitial,omitempty"`
}

// PredictionResult is the outbound result shape for both prediction
// stages. Failed INITIAL and REFINED calls come back as a result carrying
// ErrorCode and zero confidence so batch callers inspect per-item failures
// uniformly.
type PredictionResult struct {
	PredictionID        string             `json:"predictionId"`
	Domain              string             `json:"domain"`
	EstimatedDays       int                `json:"estimatedDays"`
	SourceDate          string             `json:"sourceDate,omitempty"`
	EstimatedTargetDate string             `json:"estimatedTargetDate,omitempty"`
	Confidence          float64            `json:"confidence"`
	ConfidenceLevel     string             `json:"confidenceLevel"`
	Stage               string             `json:"stage"`
	NewCategoryCount    int                `json:"newCategoryCount"`
	InputEcho           *PredictionRequest `json:"inputEcho,omitempty"`
	Timestamp           time.Time          `json:"timestamp"`
	ErrorCode           string             `json:"errorCode,omitempty"`
	ErrorMessage        string             `json:"errorMessage,omitempty"`
	Refinement          *Refinement        `json:"refinement,omitempty"`
}

// IsError reports whether the result carries a failure instead of an
// estimate.
func (r *PredictionResult) IsError() bool {
	return r.ErrorCode != ""
}

// ValidationResult scores a refined prediction against the observed
// outcome date.
type ValidationResult struct {
	PrecisionPercent float64   `json:"precisionPercent"`
	ActualDays       int       `json:"actualDays"`
	DifferenceDays   int       `json:"differenceDays"`
	QualityLabel     string    `json:"qualityLabel"`
	Trend            string    `json:"trend"`
	EstimatedDate    string    `json:"estimatedDate"`
	ObservedDate     string    `json:"observedDate"`
	ValidatedAt      time.Time `json:"validatedAt"`
}

// newResult mints a result skeleton for a computed prediction.
func newResult(domain, stage string, req *PredictionRequest) *PredictionResult {
	return &PredictionResult{
		PredictionID: uuid.NewString(),
		Domain:       domain,
		Stage:        stage,
		InputEcho:    req,
		Timestamp:    time.Now(),
	}
}

// errorResult wraps a typed failure as a result object with zero
// confidence.
func errorResult(domain, stage string, req *PredictionRequest, err error) *PredictionResult {
	r := newResult(domain, stage, req)
	r.ErrorCode = errorCode(err)
	r.ErrorMessage = err.Error()
	r.ConfidenceLevel = ConfidenceLow
	return r
}

// errorCode maps internal error categories onto the wire error codes.
// Anything artifact- or IO-flavored that is not a clean absence collapses
// into ArtifactCorrupt, the catch-all fatal kind.
func errorCode(err error) string {
	switch {
	case errors.IsCategory(err, errors.CategoryMissingFields):
		return CodeMissingFields
	case errors.IsCategory(err, errors.CategoryInvalidDate):
		return CodeInvalidDate
	case errors.IsCategory(err, errors.CategoryMissingPrediction):
		return CodeMissingPrediction
	case errors.IsCategory(err, errors.CategoryMissingOutcome):
		return CodeMissingOutcome
	case errors.IsCategory(err, errors.CategoryArtifactMissing):
		return CodeArtifactMissing
	default:
		return CodeArtifactCorrupt
	}
}

// formatDate renders a date in the wire calendar form.
func formatDate(t time.Time) string {
	return t.Format(features.EventDateLayout)
}
