package model

// Block is an interactive block instance built from an applied suggestion
type Block struct {
	ID           string         `json:"id"`
	Type         BlockType      `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Parameters   map[string]any `json:"parameters"`
	SuggestionID string         `json:"suggestion_id,omitempty"` // Suggestion the block was built from
}
