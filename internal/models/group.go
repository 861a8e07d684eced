package models

import "time"

// Group is an isolated messaging namespace. Agent addresses are only
// meaningful inside their owning group.
type Group struct {
	ID        string    `json:"id"`
	Agents    []string  `json:"agents"`
	CreatedAt time.Time `json:"created_at"`
}

// HasAgent reports whether addr is on the group roster.
func (g *Group) HasAgent(addr string) bool {
	for _, a := range g.Agents {
		if a == addr {
			return true
		}
	}
	return false
}
