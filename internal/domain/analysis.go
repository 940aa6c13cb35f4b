package domain

// Analysis is the generated declutter result for one room image.
type Analysis struct {
	// Plan is the markdown declutter plan shown to the user.
	Plan string `json:"plan"`
	// VisualizationPrompt seeds the optional before/after rendering.
	VisualizationPrompt string `json:"visualizationPrompt,omitempty"`
	// Products are shopping suggestions extracted from the plan.
	Products []Product `json:"products,omitempty"`
}

// Product is one shopping suggestion.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SearchQuery string `json:"searchQuery,omitempty"`
}
