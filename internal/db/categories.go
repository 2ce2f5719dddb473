package db

import (
	"slices"

	"github.com/tgienger/todo/internal/models"
)

// Categories returns the distinct categories owner has used, in the order
// they first appear
func (s *TaskStore) Categories(owner string) ([]string, error) {
	tasks, err := s.ListTasks(owner)
	if err != nil {
		return nil, err
	}

	var cats []string
	for _, t := range tasks {
		if !slices.Contains(cats, t.Category) {
			cats = append(cats, t.Category)
		}
	}
	return cats, nil
}

// CategoryChoices merges the built-in categories with owner's own, built-ins first
func (s *TaskStore) CategoryChoices(owner string) ([]string, error) {
	used, err := s.Categories(owner)
	if err != nil {
		return nil, err
	}
	choices := slices.Clone(models.Categories)
	for _, c := range used {
		if !slices.Contains(choices, c) {
			choices = append(choices, c)
		}
	}
	return choices, nil
}
