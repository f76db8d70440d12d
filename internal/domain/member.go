package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Member identifies a group participant. Either field may be empty; equality
// is plain struct equality so a Member can key maps and sets.
type Member struct {
	Number string `json:"number,omitempty"`
	UUID   string `json:"uuid,omitempty"`
}

// NewMember trims both identifiers and canonicalises the UUID when it parses.
func NewMember(number, id string) Member {
	return Member{
		Number: strings.TrimSpace(number),
		UUID:   canonicalUUID(id),
	}
}

func canonicalUUID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}

// Normalize returns the member with canonical identifiers.
func (m Member) Normalize() Member {
	return NewMember(m.Number, m.UUID)
}

func (m Member) IsZero() bool {
	return m.Number == "" && m.UUID == ""
}

// Ref is the identifier used to address the member in outbound mentions.
func (m Member) Ref() string {
	if m.UUID != "" {
		return m.UUID
	}
	return m.Number
}

func (m Member) String() string {
	switch {
	case m.Number != "" && m.UUID != "":
		return m.Number + "/" + m.UUID
	case m.UUID != "":
		return m.UUID
	default:
		return m.Number
	}
}

// GroupContext is the externally resolved group a rotation runs in.
type GroupContext struct {
	ID      string
	Title   string
	Members []Member

	byRef map[string]Member
}

func NewGroupContext(id, title string, members []Member) *GroupContext {
	g := &GroupContext{
		ID:      id,
		Title:   title,
		Members: make([]Member, 0, len(members)),
		byRef:   make(map[string]Member, len(members)),
	}
	seen := make(map[Member]struct{}, len(members))
	for _, m := range members {
		m = m.Normalize()
		if m.IsZero() {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		g.Members = append(g.Members, m)
		if m.UUID != "" {
			g.byRef[m.UUID] = m
		}
		if m.Number != "" {
			g.byRef[m.Number] = m
		}
	}
	return g
}

// Resolve maps a partially known member (e.g. a mention carrying only a
// UUID) onto the full group member record. Unknown members come back
// unchanged.
func (g *GroupContext) Resolve(m Member) Member {
	m = m.Normalize()
	if g == nil || g.byRef == nil {
		return m
	}
	if m.UUID != "" {
		if full, ok := g.byRef[m.UUID]; ok {
			return full
		}
	}
	if m.Number != "" {
		if full, ok := g.byRef[m.Number]; ok {
			return full
		}
	}
	return m
}
