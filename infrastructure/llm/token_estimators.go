package llm

import "strings"

// token_estimators.go provides the estimation strategies behind the
// TokenEstimator interface. Estimates back the usage figures in API
// responses when a provider does not report exact counts, so they only
// need to be directionally accurate.

// WordBasedTokenEstimator estimates tokens from the word count. Fast and
// adequate for prose-heavy prompts such as grounding contexts.
type WordBasedTokenEstimator struct{ TokensPerWord float64 }

// NewWordBasedTokenEstimator creates a word-based estimator. A
// non-positive ratio falls back to 0.75, a reasonable figure for English.
func NewWordBasedTokenEstimator(tokensPerWord float64) *WordBasedTokenEstimator {
	if tokensPerWord <= 0 {
		tokensPerWord = 0.75
	}
	return &WordBasedTokenEstimator{TokensPerWord: tokensPerWord}
}

// EstimateTokens splits on whitespace and applies the configured ratio.
func (e *WordBasedTokenEstimator) EstimateTokens(text string) int {
	words := strings.Fields(text)
	return int(float64(len(words)) * e.TokensPerWord)
}

// CharacterBasedTokenEstimator estimates tokens from the character count.
// This matches the usage accounting the HTTP layer reports when no
// provider figures are available.
type CharacterBasedTokenEstimator struct{ charsPerToken float64 }

// NewCharacterBasedTokenEstimator creates a character-based estimator. A
// non-positive ratio falls back to 4.0 characters per token.
func NewCharacterBasedTokenEstimator(charactersPerToken float64) *CharacterBasedTokenEstimator {
	if charactersPerToken <= 0 {
		charactersPerToken = 4.0
	}
	return &CharacterBasedTokenEstimator{charsPerToken: charactersPerToken}
}

// EstimateTokens divides the character count by the configured ratio.
func (e *CharacterBasedTokenEstimator) EstimateTokens(text string) int {
	return int(float64(len(text)) / e.charsPerToken)
}

// CachingTokenEstimator memoizes the results of another estimator. Useful
// when the same grounding context is estimated repeatedly across requests.
//
// The cache is unbounded reads but capped writes: once maxSize entries are
// stored, new texts are estimated without being cached.
type CachingTokenEstimator struct {
	underlying TokenEstimator
	cache      map[string]int
	maxSize    int
}

// NewCachingTokenEstimator wraps an estimator with a bounded cache.
// A non-positive maxSize falls back to 1000 entries.
func NewCachingTokenEstimator(underlying TokenEstimator, maxSize int) *CachingTokenEstimator {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CachingTokenEstimator{
		underlying: underlying,
		cache:      make(map[string]int),
		maxSize:    maxSize,
	}
}

// EstimateTokens returns the cached estimate when present, otherwise
// delegates and caches the result if space remains.
func (e *CachingTokenEstimator) EstimateTokens(text string) int {
	if tokens, exists := e.cache[text]; exists {
		return tokens
	}

	tokens := e.underlying.EstimateTokens(text)
	if len(e.cache) < e.maxSize {
		e.cache[text] = tokens
	}
	return tokens
}

// ClearCache drops all cached results.
func (e *CachingTokenEstimator) ClearCache() {
	for k := range e.cache {
		delete(e.cache, k)
	}
}

// CacheSize returns the number of cached results.
func (e *CachingTokenEstimator) CacheSize() int { return len(e.cache) }
