package model

import "time"

// Report is the complete result of analyzing one lesson source
type Report struct {
	Source      string       `json:"source"`               // File path or URL that was analyzed
	Adapter     string       `json:"adapter,omitempty"`    // Site adapter that prepared the page
	AnalyzedAt  time.Time    `json:"analyzed_at"`          // When the analysis ran
	FetchMeta   *FetchMeta   `json:"fetch_meta,omitempty"` // HTTP metadata when the source was a URL
	Suggestions []Suggestion `json:"suggestions"`          // Ranked by confidence, descending
	Summary     Summary      `json:"summary"`              // Counts and default selection
	Hints       *HintSummary `json:"hints,omitempty"`      // Optional LLM hint pass (never affects ranking)
}

// FetchMeta contains HTTP metadata from fetching a lesson URL
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	FromCache    bool   `json:"from_cache"`
}

// Summary aggregates a suggestion list
type Summary struct {
	Total     int               `json:"total"`
	ByType    map[BlockType]int `json:"by_type"`
	Threshold float64           `json:"threshold"` // Default-selection confidence threshold
	Selected  []string          `json:"selected"`  // IDs preselected by the threshold
}

// HintSummary records the optional LLM hint pass
// It never changes confidence, ordering or selection.
type HintSummary struct {
	Enabled  bool     `json:"enabled"`
	Provider string   `json:"provider,omitempty"`
	Model    string   `json:"model,omitempty"`
	Filled   int      `json:"filled"`             // Steps that received a hint
	Warnings []string `json:"warnings,omitempty"` // Non-fatal problems during the pass
}
