package entities

import "time"

// User is a participant known to the scoreboard
type User struct {
	ID         string // Internal identifier
	ExternalID string // Transport identifier, e.g. a Discord user ID
	Nickname   string
	CreatedAt  time.Time
}

// Group is the chat group games are scoped to
type Group struct {
	ID         string
	ExternalID string // Transport identifier, e.g. a Discord channel ID
	CreatedAt  time.Time
}
