// Package questions loads the per-category Q&A templates that gate design generation.
package questions

import (
	"github.com/p-blackswan/kanban-board/internal/models"
)

var definitions = []models.CategoryDefinition{
	{
		ID:          models.CategoryEconomy,
		Name:        "Economy System",
		Description: "In-game economy, currencies, resources, and trade systems",
	},
	{
		ID:          models.CategoryGameMechanic,
		Name:        "Game Mechanics",
		Description: "Core gameplay mechanics and systems that define the player experience",
	},
	{
		ID:          models.CategoryGrowth,
		Name:        "Growth & Progression",
		Description: "Player progression, leveling, unlocks, and long-term engagement systems",
	},
}

// Categories returns the category definitions.
func Categories() []models.CategoryDefinition {
	out := make([]models.CategoryDefinition, len(definitions))
	copy(out, definitions)
	return out
}

// Definition returns the definition of a category.
func Definition(c models.Category) (models.CategoryDefinition, bool) {
	for _, d := range definitions {
		if d.ID == c {
			return d, true
		}
	}
	return models.CategoryDefinition{}, false
}

// CategoryIDs returns the category ids as strings, for validation messages.
func CategoryIDs() []string {
	return []string{
		string(models.CategoryGameMechanic),
		string(models.CategoryEconomy),
		string(models.CategoryGrowth),
	}
}
