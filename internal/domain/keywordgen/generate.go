package keywordgen

import (
	"sort"
	"strings"
)

const (
	maxKeywordLen = 50
	minWords      = 2
	maxWords      = 5

	// DefaultMaxKeywords is the number of candidates returned by default
	DefaultMaxKeywords = 5
)

// Candidate is one generated search keyword with its summed weight
type Candidate struct {
	Keyword string
	Score   int
	Level   string // "specific" | "medium" | "broad"
}

// Generate combines classified tokens into ranked keyword candidates at three
// specificity levels. MODIFIER tokens are excluded; candidates longer than 50
// characters or (outside the specific level) shorter than two words are
// rejected. The result is sorted by descending score and deduplicated
// case-insensitively.
func Generate(tokens []Token, maxCount int) []Candidate {
	if maxCount <= 0 {
		maxCount = DefaultMaxKeywords
	}

	valid := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Category != CategoryModifier {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	byCat := make(map[Category][]Token)
	for _, t := range valid {
		byCat[t.Category] = append(byCat[t.Category], t)
	}

	models := byCat[CategoryModel]
	brands := byCat[CategoryBrand]
	types := byCat[CategoryType]
	series := byCat[CategorySeries]
	features := byCat[CategoryFeature]

	var candidates []Candidate

	// Specific: MODEL with TYPE or BRAND, or MODEL alone
	if len(models) > 0 {
		model := models[0]
		if len(types) > 0 {
			addCombo(&candidates, []Token{types[0], model}, "specific")
		}
		if len(brands) > 0 {
			addCombo(&candidates, []Token{brands[0], model}, "specific")
		}
		if len(candidates) < 2 {
			candidates = append(candidates, Candidate{Keyword: model.Text, Score: model.Weight, Level: "specific"})
		}
	}

	// Medium: BRAND/SERIES + TYPE, optionally suffixed by CAPACITY or QUANTITY
	if len(brands) > 0 && len(types) > 0 {
		addCombo(&candidates, []Token{brands[0], types[0]}, "medium")
	}
	if len(series) > 0 && len(types) > 0 {
		addCombo(&candidates, []Token{series[0], types[0]}, "medium")
	}
	if len(brands) > 0 && len(series) > 0 {
		addCombo(&candidates, []Token{brands[0], series[0]}, "medium")
	}
	if len(brands) > 0 && len(types) > 0 {
		extras := byCat[CategoryCapacity]
		if len(extras) == 0 {
			extras = byCat[CategoryQuantity]
		}
		if len(extras) > 0 {
			addCombo(&candidates, []Token{brands[0], types[0], extras[0]}, "medium")
		}
	}

	// Broad: FEATURE+TYPE pair or TYPE alone
	if len(types) > 0 {
		if len(features) > 0 {
			addCombo(&candidates, []Token{features[0], types[0]}, "broad")
		} else {
			candidates = append(candidates, Candidate{Keyword: types[0].Text, Score: types[0].Weight, Level: "broad"})
		}
	} else if len(features) >= 2 {
		addCombo(&candidates, features[:2], "broad")
	}

	// Fallback: the whole token list in canonical order
	if len(candidates) < 2 {
		head := valid
		if len(head) > maxWords {
			head = head[:maxWords]
		}
		text := joinOrdered(head)
		if text != "" && len([]rune(text)) <= maxKeywordLen {
			score := 0
			for _, t := range head {
				score += t.Weight
			}
			candidates = append(candidates, Candidate{Keyword: text, Score: score, Level: "medium"})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	seen := make(map[string]bool)
	result := make([]Candidate, 0, maxCount)
	for _, c := range candidates {
		key := strings.ToLower(c.Keyword)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, c)
		if len(result) >= maxCount {
			break
		}
	}
	return result
}

func addCombo(candidates *[]Candidate, tokens []Token, level string) {
	text := joinOrdered(tokens)
	if text == "" || len([]rune(text)) > maxKeywordLen {
		return
	}
	if len(strings.Fields(text)) < minWords && level != "specific" {
		return
	}
	score := 0
	for _, t := range tokens {
		score += t.Weight
	}
	*candidates = append(*candidates, Candidate{Keyword: text, Score: score, Level: level})
}

// joinOrdered sorts tokens into the marketplace's canonical category order
// before joining.
func joinOrdered(tokens []Token) string {
	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, ok := orderIndex[sorted[i].Category]
		if !ok {
			oi = 99
		}
		oj, ok := orderIndex[sorted[j].Category]
		if !ok {
			oj = 99
		}
		return oi < oj
	})
	parts := make([]string, 0, len(sorted))
	for _, t := range sorted {
		parts = append(parts, t.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
