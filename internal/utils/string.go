package utils

import (
	"context"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// FindClosestString returns the candidate with the smallest edit distance to v, ok is false if no candidate
// is at most maxDifferences edits away or if ctx is done.
func FindClosestString(ctx context.Context, candidates []string, v string, maxDifferences int) (closest string, distance int, ok bool) {
	distance = -1

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return "", 0, false
		default:
		}

		d := levenshtein.DistanceForStrings([]rune(candidate), []rune(v), levenshtein.DefaultOptionsWithSub)
		if d <= maxDifferences && (distance < 0 || d < distance) {
			closest, distance, ok = candidate, d, true
		}
	}
	return
}
