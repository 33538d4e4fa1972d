package notebook

import (
	"context"
	"fmt"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// DefaultTemplates returns the templates seeded on first read.
func DefaultTemplates() []models.Template {
	return []models.Template{
		{ID: "1", Name: "Meeting Notes", Description: "Template for meeting notes", Category: "Productivity",
			Content: "<h1>Meeting Notes</h1><p>Date: </p><p>Attendees: </p><p>Agenda: </p>"},
		{ID: "2", Name: "To-Do List", Description: "Simple to-do list", Category: "Productivity",
			Content: "<h1>To-Do List</h1><ul><li>Task 1</li><li>Task 2</li></ul>"},
		{ID: "3", Name: "Project Plan", Description: "Project planning template", Category: "Work",
			Content: "<h1>Project Plan</h1><p>Goals: </p><p>Timeline: </p>"},
		{ID: "4", Name: "Study Notes", Description: "Template for study notes", Category: "Education",
			Content: "<h1>Study Notes</h1><p>Subject: </p><p>Key Points: </p>"},
		{ID: "5", Name: "Journal Entry", Description: "Daily journal template", Category: "Personal",
			Content: "<h1>Journal Entry</h1><p>Date: </p><p>Today I...</p>"},
	}
}

// Templates returns the stored templates, seeding the defaults if none
// were ever written.
func (s *Service) Templates(ctx context.Context) []models.Template {
	return s.templates.Load(ctx)
}

// Template returns one template by id.
func (s *Service) Template(ctx context.Context, id string) (models.Template, error) {
	for _, t := range s.templates.Load(ctx) {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Template{}, fmt.Errorf("template %s: %w", id, apperr.ErrNotFound)
}
