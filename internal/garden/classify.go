package garden

import (
	"strings"

	"whispers/backend/internal/models"
)

// keywordSets is scanned in order; the first set with a hit decides the
// category.
var keywordSets = []struct {
	category models.Category
	keywords []string
}{
	{models.CategoryHappy, []string{"happy", "joy"}},
	{models.CategoryPeaceful, []string{"peace", "calm"}},
	{models.CategoryHopeful, []string{"hope", "dream"}},
}

// Classify derives the category of a thought from its text.
func Classify(text string) models.Category {
	lower := strings.ToLower(text)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.category
			}
		}
	}
	return models.CategoryDefault
}
