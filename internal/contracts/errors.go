package contracts

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy shared by every pipeline stage.
// Per-product failures carry one of these so callers can classify with errors.Is.
var (
	// ErrInsufficientHistory is returned when a series is too short to identify trend and seasonality.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrEmptySeries is returned when a series has no observations at all.
	// It is a special case of ErrInsufficientHistory.
	ErrEmptySeries = fmt.Errorf("empty series: %w", ErrInsufficientHistory)

	// ErrNoOverlap is returned when a forecast and its actuals share no date.
	ErrNoOverlap = errors.New("forecast and actuals share no common date")

	// ErrUndefinedMAPE is returned when every overlapping actual is zero.
	ErrUndefinedMAPE = errors.New("MAPE undefined: all overlapping actuals are zero")

	// ErrMissingArtifact is returned when an expected input table is absent.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrNotFound is returned by stores when no forecast exists for a product.
	ErrNotFound = errors.New("not found")

	// ErrSchema is returned when a table or series violates its fixed schema.
	ErrSchema = errors.New("schema violation")
)

// Failure reasons, stable strings used in failure records, logs and metric labels.
const (
	ReasonInsufficientHistory = "insufficient_history"
	ReasonNoOverlap           = "no_overlap"
	ReasonUndefinedMAPE       = "undefined_mape"
	ReasonMissingArtifact     = "missing_artifact"
	ReasonSchema              = "schema"
	ReasonCanceled            = "canceled"
	ReasonInternal            = "internal"
)

// Reason maps an error onto its stable failure reason
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, ErrNoOverlap):
		return ReasonNoOverlap
	case errors.Is(err, ErrUndefinedMAPE):
		return ReasonUndefinedMAPE
	case errors.Is(err, ErrMissingArtifact), errors.Is(err, ErrNotFound):
		return ReasonMissingArtifact
	case errors.Is(err, ErrSchema):
		return ReasonSchema
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	default:
		return ReasonInternal
	}
}
