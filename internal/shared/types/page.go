package types

import "time"

// Page represents one entry of the navigation stack.
// Index is the creation-order position and is never renumbered.
type Page struct {
	ID        string    `json:"id"`
	Locator   string    `json:"locator"`
	Title     string    `json:"title,omitempty"`
	Index     int       `json:"index"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether the page was registered as the stack root
func (p Page) IsRoot() bool {
	return p.Index == 0 && p.ParentID == ""
}

// StackStats contains navigator statistics
type StackStats struct {
	Confirmed int    `json:"confirmed"`
	Pending   int    `json:"pending"`
	RootID    string `json:"root_id,omitempty"`
	CurrentID string `json:"current_id,omitempty"`
}
