package crawl

import (
	"fmt"

	"github.com/asimaster/pricerank/internal/domain/shared"
)

// AlreadyRunningError is returned when a crawl is requested for a tenant or
// product whose scope lock is already held. The HTTP surface maps it to 409.
type AlreadyRunningError struct {
	*shared.DomainError
	Scope string // "tenant" | "product"
	ID    int
}

func NewAlreadyRunningError(scope string, id int) *AlreadyRunningError {
	return &AlreadyRunningError{
		DomainError: shared.NewDomainError(fmt.Sprintf("crawl already running for %s %d", scope, id)),
		Scope:       scope,
		ID:          id,
	}
}
