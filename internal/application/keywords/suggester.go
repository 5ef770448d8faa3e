package keywords

import (
	"context"
	"regexp"
	"strings"

	"github.com/asimaster/pricerank/internal/domain/keywordgen"
)

// Suggestion is one generated keyword candidate with its ranking metadata
type Suggestion struct {
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
	Level   string `json:"level"`
}

// Suggester turns free-form product names into ranked search keywords using
// the classification engine and the cached DB dictionary.
type Suggester struct {
	dict *DictionaryCache
}

func NewSuggester(dict *DictionaryCache) *Suggester {
	return &Suggester{dict: dict}
}

// Suggest generates up to maxCount keywords for a product name. The tenant's
// store label is stripped first so the storefront name never pollutes the
// candidates; when the engine produces fewer than maxCount the cleaned full
// name tops the list up.
func (s *Suggester) Suggest(ctx context.Context, productName, storeLabel string, maxCount int) []Suggestion {
	if maxCount <= 0 {
		maxCount = keywordgen.DefaultMaxKeywords
	}

	name := stripStoreLabel(strings.TrimSpace(productName), storeLabel)
	if name == "" {
		return nil
	}

	var dict *keywordgen.Dictionary
	if s.dict != nil {
		dict = s.dict.Get(ctx)
	}

	tokens := keywordgen.ClassifyTokens(name, dict)
	candidates := keywordgen.Generate(tokens, maxCount)

	out := make([]Suggestion, 0, maxCount)
	seen := make(map[string]bool)
	for _, c := range candidates {
		seen[strings.ToLower(c.Keyword)] = true
		out = append(out, Suggestion{Keyword: c.Keyword, Score: c.Score, Level: c.Level})
	}

	if len(out) < maxCount && !seen[strings.ToLower(name)] {
		out = append(out, Suggestion{Keyword: name, Level: "medium"})
	}
	if len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// stripStoreLabel removes the store name (and its space-free variant) from
// the product name, case-insensitively.
func stripStoreLabel(name, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return name
	}
	for _, variant := range []string{label, strings.ReplaceAll(label, " ", "")} {
		if variant == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(variant))
		name = strings.TrimSpace(re.ReplaceAllString(name, ""))
	}
	return name
}
