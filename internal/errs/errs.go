// Package errs defines the error taxonomy shared by the ingestion and query pipelines.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrConfiguration reports missing or invalid configuration, such as an absent API token.
	ErrConfiguration = errors.New("configuration error")
	// ErrServiceUnavailable reports that the search engine cannot be reached.
	ErrServiceUnavailable = errors.New("search engine unavailable")
	// ErrQueryExecution reports a search that reached the engine but failed.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrBatchWrite reports a failed bulk write of one batch.
	ErrBatchWrite = errors.New("batch write failed")
	// ErrAugmentation reports a failed summary generation.
	ErrAugmentation = errors.New("augmentation failed")
	// ErrInvalidQuery reports a missing or blank query.
	ErrInvalidQuery = errors.New("query is required")
)

// HTTPStatus maps err to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
