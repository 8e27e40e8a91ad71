package domain

// Message roles accepted in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatContext is optional page state sent by the caller alongside the
// conversation: the listing being viewed, bikes being compared, or a
// partially filled listing form.
type ChatContext struct {
	Listing    *Listing          `json:"listing,omitempty"`
	Comparison []Listing         `json:"comparison,omitempty"`
	Form       map[string]string `json:"form,omitempty"`
}

// HasListing reports whether the context pins a single listing.
func (c *ChatContext) HasListing() bool {
	return c != nil && c.Listing != nil
}

// ListingIDs returns the IDs of the pinned and compared listings.
func (c *ChatContext) ListingIDs() []string {
	if c == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if c.Listing != nil {
		add(c.Listing.ID)
	}
	for _, l := range c.Comparison {
		add(l.ID)
	}
	return ids
}

// LatestUserMessage returns the content of the last user turn.
func LatestUserMessage(messages []ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
