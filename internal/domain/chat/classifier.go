package chat

import (
	"strings"
)

// recipeKeywords mark a message as a kitchen-analysis request. Matching is a
// case-insensitive substring test, so "ingredients" and "analyzed" hit too.
var recipeKeywords = []string{
	"fridge",
	"recipe",
	"ingredient",
	"analyze",
}

// IsRecipeRequest reports whether the turn should take the structured recipe
// path. Text alone never qualifies; the image is what gets analyzed.
func IsRecipeRequest(text string, hasImage bool) bool {
	if !hasImage {
		return false
	}

	lowered := strings.ToLower(text)
	for _, keyword := range recipeKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
