// Package discord connects the command layer to Discord text channels.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/pkg/commands"
)

// MessageHandler handles one inbound chat message
type MessageHandler interface {
	Handle(ctx context.Context, msg commands.Message) error
}

// Sender posts replies through a Discord session
type Sender struct {
	session SessionHandler
}

// NewSender creates a Sender over session
func NewSender(session SessionHandler) *Sender {
	return &Sender{session: session}
}

// Send implements commands.Sender
func (s *Sender) Send(ctx context.Context, channelID, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg, err := s.session.ChannelMessageSend(channelID, text)
	if err != nil {
		return "", fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// Bot feeds Discord messages to a MessageHandler
type Bot struct {
	session    SessionHandler
	handler    MessageHandler
	logger     *logging.Logger
	timeout    time.Duration
	removeFunc func()
	shutdownWg sync.WaitGroup
}

// NewBot creates a new instance of Bot
func NewBot(session SessionHandler, handler MessageHandler, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Discard
	}
	return &Bot{
		session: session,
		handler: handler,
		logger:  logger.Named("discord"),
		timeout: 10 * time.Second,
	}
}

// Start registers the message handler and connects to Discord
func (b *Bot) Start() error {
	b.removeFunc = b.session.AddHandler(b.handleMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("Connected to Discord")
	return nil
}

// Shutdown disconnects and waits for in-flight messages
func (b *Bot) Shutdown() error {
	if b.removeFunc != nil {
		b.removeFunc()
	}

	err := b.session.Close()

	// Wait for any ongoing operations to complete
	b.shutdownWg.Wait()

	if err != nil {
		return fmt.Errorf("error closing Discord session: %w", err)
	}
	return nil
}

// handleMessageCreate handles Discord message events
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.HandleMessage(m.Message)
}

// HandleMessage converts a Discord message and passes it on
func (b *Bot) HandleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	// Ignore messages from the bot itself
	if state := b.session.State(); state != nil && state.User != nil && m.Author.ID == state.User.ID {
		return
	}

	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.handler.Handle(ctx, ToCommandMessage(m)); err != nil {
		b.logger.Error("Failed to handle message %s: %v", m.ID, err)
	}
}

// ToCommandMessage maps a Discord message onto commands.Message. Games are
// scoped to the channel they are played in.
func ToCommandMessage(m *discordgo.Message) commands.Message {
	msg := commands.Message{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		GroupExternalID: m.ChannelID,
		Content:         m.Content,
	}
	if m.Author != nil {
		msg.Author = participant(m.Author)
	}
	if m.MessageReference != nil {
		msg.ReplyToID = m.MessageReference.MessageID
	}
	for _, u := range m.Mentions {
		if u == nil || u.Bot {
			continue
		}
		msg.Mentions = append(msg.Mentions, participant(u))
	}
	return msg
}

func participant(u *discordgo.User) commands.Participant {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return commands.Participant{ExternalID: u.ID, Name: name}
}
