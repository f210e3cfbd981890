package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		result := Score(text)
		assert.Equal(t, 0.0, result.Score)
		assert.Equal(t, CategoryNeutral, result.Category)
		assert.Equal(t, 0.0, result.Confidence)
		assert.Empty(t, result.Matched.Positive)
		assert.Empty(t, result.Matched.Negative)
	}
}

func TestScorePositive(t *testing.T) {
	result := Score("this product is great")

	assert.Greater(t, result.Score, 0.1)
	assert.Equal(t, CategoryPositive, result.Category)
	assert.Contains(t, result.Matched.Positive, "great")
}

func TestScoreNegative(t *testing.T) {
	result := Score("terrible service, awful support")

	assert.Less(t, result.Score, -0.1)
	assert.Equal(t, CategoryNegative, result.Category)
	assert.Contains(t, result.Matched.Negative, "terrible")
	assert.Contains(t, result.Matched.Negative, "awful")
}

func TestScoreNegatorFlipsPositive(t *testing.T) {
	result := Score("not good")

	// "not" flips "good" into the negative tally: (0 - 1) / 2 = -0.5.
	assert.Equal(t, -0.5, result.Score)
	assert.Equal(t, CategoryNegative, result.Category)
	assert.Equal(t, 0.5, result.Confidence)
}

func TestScoreNegatorFlipsNegative(t *testing.T) {
	result := Score("not bad")

	assert.Equal(t, 0.5, result.Score)
	assert.Equal(t, CategoryPositive, result.Category)
}

func TestScoreContractionNegator(t *testing.T) {
	// Punctuation stripping collapses "don't" to "dont", which is a negator.
	result := Score("i don't like it")

	assert.Less(t, result.Score, 0.0)
	assert.Equal(t, CategoryNegative, result.Category)
}

func TestScoreIntensifierDoubles(t *testing.T) {
	plain := Score("good product launch today")
	boosted := Score("very good product launch")

	// Same token count; the intensified positive word weighs double.
	assert.Greater(t, boosted.Score, plain.Score)
	assert.Equal(t, CategoryPositive, boosted.Category)
}

func TestScoreNeutralText(t *testing.T) {
	result := Score("the meeting is scheduled for tomorrow")

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, CategoryNeutral, result.Category)
	assert.NotEmpty(t, result.Matched.Neutral)
}

func TestScoreOnlyImmediatelyPrecedingTokenNegates(t *testing.T) {
	// The negator is two tokens before the lexicon word, so it has no effect.
	result := Score("not a good")

	assert.Greater(t, result.Score, 0.0)
	assert.Equal(t, CategoryPositive, result.Category)
}

func TestScoreConfidenceIsAbsoluteScore(t *testing.T) {
	result := Score("bad bad bad")

	assert.Equal(t, -1.0, result.Score)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, CategoryNegative, result.Category)
}

func TestScoreMixedSentiment(t *testing.T) {
	result := Score("good product bad support")

	// One positive, one negative: tallies cancel.
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, CategoryNeutral, result.Category)
}

func TestTokenizeStripsPunctuation(t *testing.T) {
	tokens := tokenize("Great!!! Really, great... (no kidding)")

	assert.Equal(t, []string{"great", "really", "great", "no", "kidding"}, tokens)
}
