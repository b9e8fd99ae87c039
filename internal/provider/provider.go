package provider

import (
	"strings"

	"github.com/google/uuid"
)

// Selector picks providers out of a registry. It is either an IDSelector or a NameSelector.
type Selector interface {
	Matches(p Provider) bool
}

// IDSelector matches a provider by UUID.
type IDSelector uuid.UUID

func (s IDSelector) Matches(p Provider) bool {
	return uuid.UUID(s) == p.ID
}

// NameSelector matches a provider name case-insensitively. Values are stored lowercased.
type NameSelector string

func (s NameSelector) Matches(p Provider) bool {
	return strings.ToLower(p.Name) == string(s)
}

// ParseSelector classifies a single token: anything that parses as a UUID is an id.
func ParseSelector(token string) Selector {
	token = strings.TrimSpace(token)
	if id, err := uuid.Parse(token); err == nil {
		return IDSelector(id)
	}
	return NameSelector(strings.ToLower(token))
}

// ParseSelectors classifies every token. Tokens may themselves hold comma-separated lists.
func ParseSelectors(tokens []string) []Selector {
	var sels []Selector
	for _, tok := range tokens {
		for _, part := range strings.Split(tok, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			sels = append(sels, ParseSelector(part))
		}
	}
	return sels
}
