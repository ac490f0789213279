package supplier

import (
	"sort"
	"strings"
)

// Bank feeds mangle supplier names: card processors prepend channel tags
// and registered names carry legal suffixes. Matching happens on a
// normalized form with both stripped away.
var (
	noisePrefixes = []string{
		"sp ",
		"visa purchase ",
		"eftpos ",
		"paypal ",
		"sq ",
	}
	noiseSuffixes = []string{
		"pty ltd",
		"ltd",
		"inc",
		"com",
		"au",
	}
)

// Match scores:
//
//	1.00 exact normalized match
//	0.90 match after noise stripping
//	0.75 one stripped form contains the other
//	<=0.70 token overlap, scaled
const (
	scoreExact     = 1.0
	scoreStripped  = 0.9
	scoreSubstring = 0.75
	scoreTokenMax  = 0.7

	// MinScore is the floor below which a candidate is not reported.
	MinScore = 0.4
)

// normalize lowercases and replaces punctuation with spaces, collapsing
// runs of whitespace.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripNoise removes channel prefixes and legal suffixes from a normalized
// string, repeatedly, so "sp github inc" reduces to "github".
func stripNoise(s string) string {
	for changed := true; changed; {
		changed = false
		for _, p := range noisePrefixes {
			if strings.HasPrefix(s, p) {
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
				changed = true
			}
		}
		for _, suf := range noiseSuffixes {
			if s == suf {
				break
			}
			if strings.HasSuffix(s, " "+suf) {
				s = strings.TrimSpace(strings.TrimSuffix(s, " "+suf))
				changed = true
			}
		}
	}
	return s
}

// Score rates how well a query matches a supplier name, in [0, 1].
func Score(query, name string) float64 {
	qNorm, nNorm := normalize(query), normalize(name)
	if qNorm == "" || nNorm == "" {
		return 0
	}
	if qNorm == nNorm {
		return scoreExact
	}

	qStripped, nStripped := stripNoise(qNorm), stripNoise(nNorm)
	if qStripped != "" && qStripped == nStripped {
		return scoreStripped
	}
	if qStripped != "" && nStripped != "" &&
		(strings.Contains(qStripped, nStripped) || strings.Contains(nStripped, qStripped)) {
		return scoreSubstring
	}

	return scoreTokenMax * jaccard(strings.Fields(qStripped), strings.Fields(nStripped))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := map[string]bool{}
	for _, tok := range a {
		set[tok] = true
	}
	union := len(set)
	matched := 0
	for _, tok := range b {
		if set[tok] {
			matched++
			delete(set, tok)
		} else {
			union++
		}
	}
	return float64(matched) / float64(union)
}

// rank sorts candidate indices by descending score, breaking ties by name
// so results are stable across runs.
func rank(scores []float64, names []string) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return names[idx[a]] < names[idx[b]]
	})
	return idx
}
