package alert

import "github.com/asimaster/pricerank/internal/domain/shared"

// SubscriptionGoneError reports a push endpoint that answered 404 or 410;
// the subscription should be deleted.
type SubscriptionGoneError struct {
	*shared.DomainError
	StatusCode int
}

func NewSubscriptionGoneError(statusCode int) *SubscriptionGoneError {
	return &SubscriptionGoneError{
		DomainError: shared.NewDomainError("push subscription gone"),
		StatusCode:  statusCode,
	}
}
