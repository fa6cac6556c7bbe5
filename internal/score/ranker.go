package score

import (
	"sort"

	"github.com/ppiankov/mathblocks/internal/model"
)

// Rank returns a copy of suggestions sorted by confidence, descending.
// The sort is stable: equal confidences keep their encounter order, which
// makes repeated analysis of the same input deterministic.
func Rank(suggestions []model.Suggestion) []model.Suggestion {
	ranked := make([]model.Suggestion, len(suggestions))
	copy(ranked, suggestions)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	return ranked
}

// DefaultSelection returns the ids of suggestions preselected for the user:
// those whose confidence is at or above threshold, in ranked order.
func DefaultSelection(suggestions []model.Suggestion, threshold float64) []string {
	selected := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Confidence >= threshold {
			selected = append(selected, s.ID)
		}
	}
	return selected
}

// Summarize counts suggestions per block type and records the default
// selection.
func Summarize(suggestions []model.Suggestion, threshold float64) model.Summary {
	byType := make(map[model.BlockType]int)
	for _, s := range suggestions {
		byType[s.Type]++
	}

	return model.Summary{
		Total:     len(suggestions),
		ByType:    byType,
		Threshold: threshold,
		Selected:  DefaultSelection(suggestions, threshold),
	}
}

// Select returns the suggestions whose ids are listed, in ranked order.
// Unknown ids are reported back so callers can reject them.
func Select(suggestions []model.Suggestion, ids []string) (selected []model.Suggestion, unknown []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	found := make(map[string]bool, len(ids))
	for _, s := range suggestions {
		if want[s.ID] {
			selected = append(selected, s)
			found[s.ID] = true
		}
	}

	for _, id := range ids {
		if !found[id] {
			unknown = append(unknown, id)
		}
	}
	return selected, unknown
}
