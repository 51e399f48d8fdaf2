package domain

// Envelope is the top-level response returned by upstream for one kind.
type Envelope struct {
	Status string         `json:"status"`
	Data   []ExternalItem `json:"data"`
}

// ExternalItem is one upstream catalog entry. Explicit is carried through but
// does not take part in reconciliation.
type ExternalItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Link        string   `json:"link"`
	Author      string   `json:"author"`
	Categories  []string `json:"categories"`
	Language    string   `json:"language"`
	Explicit    bool     `json:"explicit"`
}
