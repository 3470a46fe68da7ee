package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrPredictionNotFound = errors.New("prediction not found")
)
