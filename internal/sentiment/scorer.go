package sentiment

import (
	"strings"
	"unicode"
)

type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
)

const categoryThreshold = 0.1

// MatchedWords records which tokens hit which lexicon. A negated lexicon word
// is listed under the lexicon it matched, not the tally it ended up in.
type MatchedWords struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

type Result struct {
	Score      float64      `json:"score"`
	Category   Category     `json:"category"`
	Confidence float64      `json:"confidence"`
	Matched    MatchedWords `json:"matched_words"`
}

// Score rates text on a [-1, 1] scale using the fixed lexicons. Only the
// token immediately preceding a lexicon word is consulted for negation and
// intensification; multi-word negation phrases are not detected.
func Score(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{
			Category: CategoryNeutral,
			Matched:  MatchedWords{Positive: []string{}, Negative: []string{}, Neutral: []string{}},
		}
	}

	matched := MatchedWords{Positive: []string{}, Negative: []string{}, Neutral: []string{}}
	var positiveTally, negativeTally float64

	for i, token := range tokens {
		multiplier := 1.0
		if i > 0 {
			prev := tokens[i-1]
			if negatorWords[prev] {
				multiplier = -1
			}
			if intensifierWords[prev] {
				multiplier *= 2
			}
		}

		switch {
		case positiveWords[token]:
			matched.Positive = append(matched.Positive, token)
			weight := 1.0 * multiplier
			if weight >= 0 {
				positiveTally += weight
			} else {
				negativeTally += -weight
			}
		case negativeWords[token]:
			matched.Negative = append(matched.Negative, token)
			weight := 1.0 * multiplier
			if weight >= 0 {
				negativeTally += weight
			} else {
				positiveTally += -weight
			}
		default:
			matched.Neutral = append(matched.Neutral, token)
		}
	}

	score := (positiveTally - negativeTally) / float64(len(tokens))
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	category := CategoryNeutral
	if score > categoryThreshold {
		category = CategoryPositive
	} else if score < -categoryThreshold {
		category = CategoryNegative
	}

	confidence := score
	if confidence < 0 {
		confidence = -confidence
	}

	return Result{
		Score:      score,
		Category:   category,
		Confidence: confidence,
		Matched:    matched,
	}
}

// tokenize lowercases the text, drops punctuation (so contractions collapse,
// "don't" becomes "dont") and splits on whitespace.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}
