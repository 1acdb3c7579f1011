package sentiment

import "strings"

// Lexicon is the keyword data behind RuleScorer. Words match as
// case-insensitive substrings.
type Lexicon struct {
	Positive []string
	Negative []string
}

// NewLexicon lowercases and de-duplicates both word lists
func NewLexicon(positive, negative []string) Lexicon {
	return Lexicon{Positive: normalizeWords(positive), Negative: normalizeWords(negative)}
}

// WithOverrides replaces either list when the override is non-empty
func (l Lexicon) WithOverrides(positive, negative []string) Lexicon {
	if len(positive) > 0 {
		l.Positive = normalizeWords(positive)
	}
	if len(negative) > 0 {
		l.Negative = normalizeWords(negative)
	}
	return l
}

func normalizeWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// DefaultLexicon returns the built-in keyword lists
func DefaultLexicon() Lexicon {
	return NewLexicon(strings.Fields(defaultPositive), strings.Fields(defaultNegative))
}

const defaultPositive = `
excellent great amazing wonderful fantastic outstanding superb brilliant good better best
love enjoy appreciate satisfied happy pleased delighted thrilled excited glad
effective efficient productive successful beneficial valuable helpful useful
strong solid reliable consistent stable smooth easy simple clear
supportive collaborative friendly welcoming inclusive respectful professional
innovative creative flexible adaptable responsive quick fast convenient
improved enhanced optimized streamlined perfect ideal
positive upbeat motivated inspired confident proud accomplished fulfilled
awesome incredible marvelous splendid terrific magnificent`

const defaultNegative = `
terrible awful horrible disgusting disappointing frustrating annoying bad worse worst
hate dislike despise loathe detest resent regret worry concern fear
ineffective inefficient unproductive unsuccessful problematic useless harmful
weak unreliable inconsistent unstable broken difficult complex confusing
unsupportive uncooperative unfriendly unwelcoming exclusive disrespectful unprofessional
outdated inflexible unresponsive slow sluggish inconvenient complicated messy
degraded reduced compromised imperfect flawed
negative pessimistic demotivated uninspired stressed overwhelmed burned exhausted
problem issue challenge struggle difficulty obstacle barrier
lack missing absent insufficient inadequate limited restricted constrained
expensive costly overpriced unaffordable wasteful unnecessary redundant`
