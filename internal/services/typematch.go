package services

import "strings"

// DefaultTypeMatchThreshold is the minimum similarity for consolidating a
// classified label into an existing document type lineage.
const DefaultTypeMatchThreshold = 0.8

// Substring containment is strong evidence of identity ("pan_card" inside
// "indian_pan_card"), so it floors the similarity score.
const containmentFloor = 0.85

type TypeMatch struct {
	DocumentType string
	Score        float64
}

// BestTypeMatch resolves a freshly classified document type against the types
// already registered for the same country. Classification is generative and
// produces near-duplicate labels across runs; without consolidation, schema
// lineages fragment. Ties keep the first candidate in slice order.
func BestTypeMatch(classified string, existing []string, threshold float64) (TypeMatch, bool) {
	if len(existing) == 0 {
		return TypeMatch{}, false
	}
	classifiedNorm := strings.ToLower(strings.TrimSpace(classified))

	var best TypeMatch
	found := false
	for _, candidate := range existing {
		candidateNorm := strings.ToLower(strings.TrimSpace(candidate))

		if classifiedNorm == candidateNorm {
			return TypeMatch{DocumentType: candidate, Score: 1.0}, true
		}

		score := similarityRatio(classifiedNorm, candidateNorm)
		if strings.Contains(candidateNorm, classifiedNorm) || strings.Contains(classifiedNorm, candidateNorm) {
			if score < containmentFloor {
				score = containmentFloor
			}
		}

		if score >= threshold && score > best.Score {
			best = TypeMatch{DocumentType: candidate, Score: score}
			found = true
		}
	}
	return best, found
}

// similarityRatio is a sequence-similarity ratio in [0,1]:
// 2*LCS(a,b) / (len(a)+len(b)).
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	lcs := lcsLength([]rune(a), []rune(b))
	return 2.0 * float64(lcs) / float64(len([]rune(a))+len([]rune(b)))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
