package conversation

import "strings"

// Selection is the id/title pair of a tapped list row or reply button.
type Selection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Inbound is one normalized message from the messaging channel.
type Inbound struct {
	From      string
	Name      string
	Text      string
	Selection *Selection
}

// Content is the raw answer: the selection id when the customer tapped an option, else the typed text.
func (in Inbound) Content() string {
	if in.Selection != nil && in.Selection.ID != "" {
		return strings.TrimSpace(in.Selection.ID)
	}
	return strings.TrimSpace(in.Text)
}

// Normalized is Content lowercased with inner whitespace collapsed, used for keyword matching.
func (in Inbound) Normalized() string {
	return strings.Join(strings.Fields(strings.ToLower(in.Content())), " ")
}

func (in Inbound) Empty() bool {
	return in.Content() == ""
}
