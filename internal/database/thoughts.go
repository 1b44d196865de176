package database

import "whispers/backend/internal/models"

// withoutThought returns a copy of thoughts lacking the entry with id and
// whether such an entry existed. The copy is never nil so that it encodes as
// an empty array.
func withoutThought(thoughts []models.Thought, id string) ([]models.Thought, bool) {
	kept := make([]models.Thought, 0, len(thoughts))
	removed := false
	for _, t := range thoughts {
		if t.ID == id {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	return kept, removed
}

func nonNil(thoughts []models.Thought) []models.Thought {
	if thoughts == nil {
		return make([]models.Thought, 0)
	}
	return thoughts
}
