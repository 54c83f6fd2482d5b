package commands

import "context"

// Participant is a chat user as the transport sees them
type Participant struct {
	ExternalID string
	Name       string
}

// Message is an inbound chat message, independent of the transport
type Message struct {
	ID              string
	ChannelID       string
	GroupExternalID string // Chat group the message was posted in
	Author          Participant
	Content         string
	ReplyToID       string // ID of the message this one replies to, if any
	Mentions        []Participant
}

// Sender posts replies. It returns the ID of the posted message so that
// replies to it can be traced back to the game.
type Sender interface {
	Send(ctx context.Context, channelID, text string) (string, error)
}
