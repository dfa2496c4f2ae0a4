package domain

import "time"

// Conversation links two (or more) users as authorized correspondents.
// The relay treats it as immutable for the duration of an event.
type Conversation struct {
	ID           string
	Participants []string
	CreatedAt    time.Time
}

// HasParticipant reports whether userID is a member of the conversation.
func (c Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Others returns every participant except userID. For a bilateral
// conversation this is the single counterpart.
func (c Conversation) Others(userID string) []string {
	var others []string
	for _, p := range c.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}
