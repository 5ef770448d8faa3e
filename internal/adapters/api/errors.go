package api

import (
	"fmt"

	"github.com/asimaster/pricerank/internal/domain/shared"
)

// CredentialsMissingError is returned when the marketplace client id or
// secret is not configured. Not retryable.
type CredentialsMissingError struct {
	*shared.DomainError
}

func NewCredentialsMissingError() *CredentialsMissingError {
	return &CredentialsMissingError{
		DomainError: shared.NewDomainError("marketplace credentials are not configured"),
	}
}

// SearchFailedError is returned for a non-2xx search response
type SearchFailedError struct {
	*shared.DomainError
	StatusCode int
}

func NewSearchFailedError(statusCode int) *SearchFailedError {
	return &SearchFailedError{
		DomainError: shared.NewDomainError(fmt.Sprintf("search failed with status %d", statusCode)),
		StatusCode:  statusCode,
	}
}

// NoResultsError is returned when the marketplace answers with an empty
// result set.
type NoResultsError struct {
	*shared.DomainError
	Keyword string
}

func NewNoResultsError(keyword string) *NoResultsError {
	return &NoResultsError{
		DomainError: shared.NewDomainError("no results"),
		Keyword:     keyword,
	}
}
