package domain

// IntentType is the coarse classification of a user query.
type IntentType string

const (
	IntentRegulation IntentType = "regulation"
	IntentListing    IntentType = "listing"
	IntentMarket     IntentType = "market"
	IntentTool       IntentType = "tool"
	IntentGeneral    IntentType = "general"
)

// IsValid checks if the intent type is known
func (t IntentType) IsValid() bool {
	switch t {
	case IntentRegulation, IntentListing, IntentMarket, IntentTool, IntentGeneral:
		return true
	}
	return false
}

// ClassifiedIntent is derived per query and never persisted.
// Category is only set for regulation intents.
type ClassifiedIntent struct {
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence"`
	Category   string     `json:"category,omitempty"`
	Keywords   []string   `json:"keywords"`
}

// NeedsRetrieval reports whether the intent consults the knowledge base.
func (i ClassifiedIntent) NeedsRetrieval() bool {
	return i.Type == IntentRegulation || i.Type == IntentMarket
}
