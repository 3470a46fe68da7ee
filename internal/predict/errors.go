package predict

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed prediction request.
type ErrorKind string

const (
	// ArtifactLoad means the artifact is missing, unreadable or not in a
	// supported format.
	ArtifactLoad ErrorKind = "artifact_load"
	// SchemaMismatch means the assembled record does not match the columns
	// the artifact was fit on.
	SchemaMismatch ErrorKind = "schema_mismatch"
	// Prediction means the artifact loaded but evaluating it failed.
	Prediction ErrorKind = "prediction"
)

// ErrUnknownModel is returned by ParseKind for unrecognised selectors.
var ErrUnknownModel = errors.New("unknown model kind")

// Error is the single failure type the dispatcher returns.
type Error struct {
	Kind  ErrorKind
	Model Kind
	Err   error
}

func (e *Error) Error() string {
	var what string
	switch e.Kind {
	case ArtifactLoad:
		what = "loading"
	case SchemaMismatch:
		what = "matching the feature schema of"
	default:
		what = "predicting with"
	}
	return fmt.Sprintf("Error %s the %s model: %v", what, e.Model.Label(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or "" if err is not a
// dispatcher error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
