package export

import "strings"

// Conversation is one thread of the export.
type Conversation struct {
	ID          string
	DisplayName string
	Messages    []Value
}

// Partner is a conversation offered for analysis.
type Partner struct {
	Label    string `json:"label"`
	Username string `json:"username"`
	Index    int    `json:"index"`
}

const (
	systemSuffix   = ".skype"
	personalPrefix = "8:"
)

func conversationFrom(v Value) Conversation {
	var c Conversation
	if id, ok := v.Get("id"); ok {
		c.ID, _ = id.Text()
	}
	if name, ok := v.Get("displayName"); ok {
		c.DisplayName, _ = name.Text()
	}
	if list, ok := v.Get("MessageList"); ok {
		c.Messages = list.Items()
	}
	return c
}

// Partners lists the conversations a user can pick from. System threads are
// left out; Index always refers to the position in convs.
func Partners(convs []Conversation) []Partner {
	var out []Partner
	for i, c := range convs {
		if strings.HasSuffix(c.ID, systemSuffix) {
			continue
		}
		label := c.ID
		if c.DisplayName != "" && strings.HasPrefix(c.ID, personalPrefix) {
			label = c.DisplayName
		}
		out = append(out, Partner{Label: label, Username: c.ID, Index: i})
	}
	return out
}

// PartnerIndex maps labels to conversation positions. On duplicate labels the
// first conversation wins.
func PartnerIndex(partners []Partner) map[string]int {
	idx := make(map[string]int, len(partners))
	for _, p := range partners {
		if _, dup := idx[p.Label]; !dup {
			idx[p.Label] = p.Index
		}
	}
	return idx
}
