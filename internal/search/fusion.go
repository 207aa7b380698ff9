package search

import "sort"

// Fuse merges ranked result lists using reciprocal rank fusion.
// k is the standard RRF constant (typically 60).
// Each result's fused score is sum(1 / (k + rank)) across all lists it
// appears in, with rank 1-based, so items present in several lists rise.
func Fuse(lists [][]Ranked, k float64) []Ranked {
	scores := make(map[string]float64)

	for _, list := range lists {
		for rank, r := range list {
			scores[r.ID] += 1.0 / (k + float64(rank+1))
		}
	}

	merged := make([]Ranked, 0, len(scores))
	for id, score := range scores {
		merged = append(merged, Ranked{ID: id, Score: score})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].ID < merged[j].ID
	})

	return merged
}

// Threshold drops results scoring below topScore*ratio.
// The input must already be sorted descending; ratio 0 disables the cutoff.
func Threshold(results []Ranked, ratio float64) []Ranked {
	if ratio <= 0 || len(results) == 0 {
		return results
	}
	minScore := results[0].Score * ratio
	cutoff := len(results)
	for i, r := range results {
		if r.Score < minScore {
			cutoff = i
			break
		}
	}
	return results[:cutoff]
}
