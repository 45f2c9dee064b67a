// Package similarity scores how alike two names are and picks the closest
// candidate, for "did you mean" hints on misspelled tileset names.
package similarity

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/klauern/tmxsync/internal/logging"
)

// Algorithm selects the scoring function.
type Algorithm string

const (
	// Levenshtein scores by edit distance.
	Levenshtein Algorithm = "levenshtein"
	// JaroWinklerAlgorithm scores by Jaro-Winkler, favouring shared prefixes.
	JaroWinklerAlgorithm Algorithm = "jaro-winkler"
	// Combined takes the higher of both scores.
	Combined Algorithm = "combined"
)

// Config configures name matching.
type Config struct {
	// Threshold is the minimum score (0.0-1.0) for a match. Default: 0.7
	Threshold float64
	// Algorithm defaults to Combined.
	Algorithm Algorithm
	// Normalize folds case and separators ("Grass_Tiles" == "grass tiles").
	Normalize bool
}

// DefaultConfig returns the settings used for tileset name hints.
func DefaultConfig() Config {
	return Config{
		Threshold: 0.7,
		Algorithm: Combined,
		Normalize: true,
	}
}

// Match is a candidate name with its score.
type Match struct {
	Name  string
	Score float64
}

// Matcher compares names.
type Matcher struct {
	config Config
}

// NewMatcher creates a matcher, filling in defaults for out-of-range values.
func NewMatcher(config Config) *Matcher {
	if config.Threshold <= 0 || config.Threshold > 1 {
		config.Threshold = 0.7
	}
	if config.Algorithm == "" {
		config.Algorithm = Combined
	}
	return &Matcher{config: config}
}

// Closest returns the best-scoring candidate at or above the threshold.
// Ties keep the earlier candidate. Exact matches are not suggestions and are
// ignored.
func (m *Matcher) Closest(name string, candidates []string) (Match, bool) {
	var best Match
	found := false
	for _, c := range candidates {
		if c == name {
			continue
		}
		score := m.Compare(name, c)
		if score < m.config.Threshold {
			continue
		}
		if !found || score > best.Score {
			best = Match{Name: c, Score: score}
			found = true
		}
	}

	if found {
		logging.Debug("closest name found",
			logging.Operation("name_similarity"),
			slog.String("name", name),
			slog.String("match", best.Name),
			slog.Float64("score", best.Score),
		)
	}
	return best, found
}

// Suggest returns the closest candidate to name using DefaultConfig, or ""
// when nothing is close enough.
func Suggest(name string, candidates []string) string {
	m, ok := NewMatcher(DefaultConfig()).Closest(name, candidates)
	if !ok {
		return ""
	}
	return m.Name
}

// Compare returns the similarity score between two names (0.0-1.0).
func (m *Matcher) Compare(name1, name2 string) float64 {
	if m.config.Normalize {
		name1 = normalizeName(name1)
		name2 = normalizeName(name2)
	}

	if name1 == name2 {
		return 1.0
	}
	if name1 == "" || name2 == "" {
		return 0.0
	}

	switch m.config.Algorithm {
	case Levenshtein:
		return LevenshteinSimilarity(name1, name2)
	case JaroWinklerAlgorithm:
		return JaroWinkler(name1, name2)
	default:
		return max(LevenshteinSimilarity(name1, name2), JaroWinkler(name1, name2))
	}
}

// normalizeName lowercases s, keeps letters and digits, and collapses runs of
// '-', '_', '.' and spaces into one space.
func normalizeName(s string) string {
	s = strings.ToLower(s)

	var result strings.Builder
	result.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevSpace = false
		case r == '-' || r == '_' || r == ' ' || r == '.':
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// LevenshteinDistance returns the number of single-rune insertions,
// deletions or substitutions turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// shorter string as columns
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// LevenshteinSimilarity normalizes the edit distance to 0.0-1.0.
func LevenshteinSimilarity(s1, s2 string) float64 {
	maxLen := max(len([]rune(s1)), len([]rune(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(s1, s2))/float64(maxLen)
}

// JaroSimilarity returns the Jaro similarity between two strings.
func JaroSimilarity(s1, s2 string) float64 {
	r1 := []rune(s1)
	r2 := []rune(s2)

	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	window := max(0, max(len(r1), len(r2))/2-1)
	matched1 := make([]bool, len(r1))
	matched2 := make([]bool, len(r2))

	matches := 0
	for i := range r1 {
		lo := max(0, i-window)
		hi := min(len(r2), i+window+1)
		for j := lo; j < hi; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := range r1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(r1)) + m/float64(len(r2)) + (m-float64(transpositions/2))/m) / 3.0
}

// JaroWinkler boosts the Jaro score for a common prefix of up to 4 runes.
func JaroWinkler(s1, s2 string) float64 {
	jaro := JaroSimilarity(s1, s2)

	r1 := []rune(s1)
	r2 := []rune(s2)
	prefix := 0
	for i := range min(4, len(r1), len(r2)) {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}

	const scaling = 0.1
	return jaro + float64(prefix)*scaling*(1.0-jaro)
}
