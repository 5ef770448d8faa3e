package catalog

import (
	"fmt"

	"github.com/asimaster/pricerank/internal/domain/shared"
)

// KeywordLimitError is returned when activating a keyword would exceed the
// per-product limit.
type KeywordLimitError struct {
	*shared.DomainError
	ProductID int
	Limit     int
}

func NewKeywordLimitError(productID, limit int) *KeywordLimitError {
	return &KeywordLimitError{
		DomainError: shared.NewDomainError(fmt.Sprintf("product %d already has %d active keywords", productID, limit)),
		ProductID:   productID,
		Limit:       limit,
	}
}

// PrimaryKeywordError is returned when deleting a product's primary keyword
type PrimaryKeywordError struct {
	*shared.DomainError
	KeywordID int
}

func NewPrimaryKeywordError(keywordID int) *PrimaryKeywordError {
	return &PrimaryKeywordError{
		DomainError: shared.NewDomainError(fmt.Sprintf("keyword %d is the primary keyword and cannot be deleted", keywordID)),
		KeywordID:   keywordID,
	}
}
