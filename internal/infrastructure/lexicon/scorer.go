package lexicon

import (
	"math"
	"strings"

	"RedditPulse/internal/ports"
)

// Scorer is the in-process rule-based sentiment signal: a small valence
// lexicon with negation flipping and booster words, normalized to [-1, 1].
// Deterministic for a given text and never fails, which makes it the
// fallback when the trained classifier is unavailable.
type Scorer struct{}

var _ ports.LexiconScorer = (*Scorer)(nil)

// NewScorer builds the scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// normalization constant; keeps single strong words from saturating.
const normAlpha = 15

var valence = map[string]float64{
	"great":      3.1,
	"good":       1.9,
	"excellent":  2.7,
	"amazing":    2.8,
	"awesome":    3.1,
	"love":       3.2,
	"win":        2.8,
	"wins":       2.8,
	"gain":       2.4,
	"gains":      2.4,
	"profit":     2.1,
	"bull":       1.6,
	"bullish":    2.3,
	"moon":       2.0,
	"rocket":     1.8,
	"up":         1.2,
	"happy":      2.7,
	"positive":   2.3,
	"strong":     2.0,
	"buy":        1.3,
	"rally":      1.9,
	"beat":       1.5,
	"terrible":   -3.0,
	"bad":        -2.5,
	"awful":      -2.9,
	"horrible":   -2.9,
	"hate":       -2.7,
	"loss":       -2.4,
	"losses":     -2.4,
	"lose":       -2.3,
	"crash":      -2.8,
	"bear":       -1.4,
	"bearish":    -2.2,
	"drop":       -1.7,
	"dump":       -1.9,
	"down":       -1.2,
	"sad":        -2.1,
	"negative":   -2.3,
	"weak":       -1.8,
	"sell":       -1.1,
	"scam":       -2.9,
	"fraud":      -3.0,
	"risk":       -1.1,
	"worried":    -1.8,
	"fear":       -2.2,
	"panic":      -2.4,
	"bankruptcy": -3.0,
	"miss":       -1.4,
}

var negations = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"neither": {},
	"nor":     {},
	"cannot":  {},
	"cant":    {},
	"dont":    {},
	"wont":    {},
	"isnt":    {},
	"wasnt":   {},
}

var boosters = map[string]float64{
	"very":       0.293,
	"really":     0.267,
	"extremely":  0.293,
	"absolutely": 0.293,
	"incredibly": 0.293,
	"so":         0.2,
	"slightly":   -0.293,
	"somewhat":   -0.2,
	"barely":     -0.293,
}

// Score returns the lexicon sentiment of text in [-1, 1]; empty or
// non-lexical text scores 0.
func (s *Scorer) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	for i, token := range tokens {
		v, ok := valence[token]
		if !ok {
			continue
		}

		boost := 0.0
		negated := false
		// One-token lookbehind for boosters, two for negation.
		if i > 0 {
			if b, ok := boosters[tokens[i-1]]; ok {
				boost = b
			}
			if _, ok := negations[tokens[i-1]]; ok {
				negated = true
			}
		}
		if !negated && i > 1 {
			if _, ok := negations[tokens[i-2]]; ok {
				negated = true
			}
		}

		if v > 0 {
			v += boost
		} else {
			v -= boost
		}
		if negated {
			v = -0.74 * v
		}
		sum += v
	}

	return sum / math.Sqrt(sum*sum+normAlpha)
}

func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}
