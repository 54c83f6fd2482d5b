package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fadedpez/scoreboard/pkg/correlation"
	"github.com/fadedpez/scoreboard/pkg/metrics"
	gameRepo "github.com/fadedpez/scoreboard/pkg/repositories/game"
	"github.com/fadedpez/scoreboard/pkg/repositories/identity"
	"github.com/fadedpez/scoreboard/pkg/services/record"
	"github.com/fadedpez/scoreboard/pkg/services/statistics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, channelID, text string) (string, error) {
	args := m.Called(ctx, channelID, text)
	if fn, ok := args.Get(0).(func(context.Context, string, string) string); ok {
		return fn(ctx, channelID, text), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

type HandlerTestSuite struct {
	suite.Suite
	sender  *MockSender
	users   *identity.MemoryRepository
	games   *record.Service
	cache   *correlation.Cache
	metrics *metrics.Metrics
	handler *Handler
	ctx     context.Context
	now     time.Time
	nextID  int
	sent    []string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	s.nextID = 0
	s.sent = nil

	s.sender = new(MockSender)
	s.sender.On("Send", mock.Anything, "channel-1", mock.Anything).
		Return(func(_ context.Context, _, text string) string {
			s.nextID++
			s.sent = append(s.sent, text)
			return fmt.Sprintf("out-%d", s.nextID)
		}, nil)

	s.users = identity.NewMemoryRepository()
	s.metrics = metrics.New(prometheus.NewRegistry())
	store := gameRepo.NewMemoryRepository()
	s.games = record.NewService(store)

	cache, err := correlation.New(2*time.Hour, correlation.WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.cache = cache

	s.handler = NewHandler(s.games, s.users, s.cache, s.sender,
		WithMetrics(s.metrics), WithStandings(statistics.NewService(store)))
}

func (s *HandlerTestSuite) message(author, content string) Message {
	return Message{
		ID:              "in",
		ChannelID:       "channel-1",
		GroupExternalID: "guild-1",
		Author:          Participant{ExternalID: author, Name: strings.ToUpper(author)},
		Content:         content,
	}
}

// send handles msg and returns the reply text and its message ID
func (s *HandlerTestSuite) send(msg Message) (string, string) {
	s.Require().NoError(s.handler.Handle(s.ctx, msg))
	s.Require().NotEmpty(s.sent, "Expected a reply")
	return s.sent[len(s.sent)-1], fmt.Sprintf("out-%d", s.nextID)
}

func (s *HandlerTestSuite) groupID() string {
	group, err := s.users.GetOrCreateGroup(s.ctx, "guild-1")
	s.Require().NoError(err)
	return group.ID
}

func (s *HandlerTestSuite) userID(external string) string {
	user, err := s.users.GetOrCreateUser(s.ctx, external, "")
	s.Require().NoError(err)
	return user.ID
}

func (s *HandlerTestSuite) TestIgnoresNonCommands() {
	s.NoError(s.handler.Handle(s.ctx, s.message("a", "hello there")))
	s.NoError(s.handler.Handle(s.ctx, s.message("a", "!")))
	s.NoError(s.handler.Handle(s.ctx, s.message("a", "!dance")))

	s.sender.AssertNotCalled(s.T(), "Send", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestNewGame() {
	// Execute
	text, id := s.send(s.message("a", "!newgame east"))

	// Assert
	s.Contains(text, "Game 1  Four-player East")
	s.Contains(text, "Promoter: A")

	entry, ok := s.cache.Get(id)
	s.Require().True(ok, "The reply is remembered")
	s.Equal("1", entry.SubjectID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("newgame", "ok")))
}

func (s *HandlerTestSuite) TestNewGameDefaultsToSouth() {
	text, _ := s.send(s.message("a", "!newgame"))

	s.Contains(text, "Four-player South")
}

func (s *HandlerTestSuite) TestNewGameUnknownMode() {
	text, _ := s.send(s.message("a", "!newgame west"))

	s.Contains(text, "❌")
	s.Contains(text, "west")
	s.Equal(0, s.cache.Len())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("newgame", "INVALID_MODE")))
}

func (s *HandlerTestSuite) TestRecordWithExplicitCode() {
	s.send(s.message("a", "!newgame"))

	text, id := s.send(s.message("a", "!record game1 30"))

	s.Contains(text, "#1  A    30")
	entry, ok := s.cache.Get(id)
	s.Require().True(ok)
	s.Equal("1", entry.SubjectID)
	s.Equal(s.userID("a"), entry.Text("user_id"))
}

func (s *HandlerTestSuite) TestRecordByReplyAndMention() {
	// Setup
	_, gameMsg := s.send(s.message("a", "!newgame"))

	// Execute
	msg := s.message("a", "!record <@b> 30")
	msg.ReplyToID = gameMsg
	msg.Mentions = []Participant{{ExternalID: "b", Name: "Bob"}}
	text, _ := s.send(msg)

	// Assert
	s.Contains(text, "#1  Bob    30")
	game, err := s.games.GetByCode(s.ctx, s.groupID(), 1)
	s.Require().NoError(err)
	s.Require().Len(game.Records, 1)
	s.Equal(s.userID("b"), game.Records[0].ParticipantID)
}

func (s *HandlerTestSuite) TestExplicitCodeWinsOverReply() {
	s.send(s.message("a", "!newgame"))
	_, secondMsg := s.send(s.message("a", "!newgame"))

	msg := s.message("a", "!record game1 30")
	msg.ReplyToID = secondMsg
	s.send(msg)

	first, err := s.games.GetByCode(s.ctx, s.groupID(), 1)
	s.Require().NoError(err)
	s.Len(first.Records, 1)
	second, err := s.games.GetByCode(s.ctx, s.groupID(), 2)
	s.Require().NoError(err)
	s.Empty(second.Records)
}

func (s *HandlerTestSuite) TestFullGameByReplies() {
	// Setup
	_, last := s.send(s.message("a", "!newgame"))

	// Execute
	var text string
	for _, p := range []struct {
		user  string
		score int
	}{{"a", 30}, {"b", 30}, {"c", 20}, {"d", 20}} {
		msg := s.message(p.user, fmt.Sprintf("!record %d", p.score))
		msg.ReplyToID = last
		text, last = s.send(msg)
	}

	// Assert
	s.Contains(text, "State: Complete")
	s.Contains(text, "#1  A    30  (+20)")
	s.Contains(text, "#4  D    20  (-20)")
}

func (s *HandlerTestSuite) TestRevertUsesReplyContextUser() {
	// Setup
	s.send(s.message("a", "!newgame"))
	_, recordMsg := s.send(s.message("b", "!record game1 30"))

	// Execute
	msg := s.message("a", "!revert")
	msg.ReplyToID = recordMsg
	text, _ := s.send(msg)

	// Assert
	s.NotContains(text, "#1")
	game, err := s.games.GetByCode(s.ctx, s.groupID(), 1)
	s.Require().NoError(err)
	s.Empty(game.Records, "B's result was reverted by A")
}

func (s *HandlerTestSuite) TestRevertDefaultsToAuthor() {
	s.send(s.message("a", "!newgame"))
	s.send(s.message("a", "!record game1 30"))
	s.send(s.message("b", "!record game1 30"))

	s.send(s.message("b", "!revert game1"))

	game, err := s.games.GetByCode(s.ctx, s.groupID(), 1)
	s.Require().NoError(err)
	s.Require().Len(game.Records, 1)
	s.Equal(s.userID("a"), game.Records[0].ParticipantID)
}

func (s *HandlerTestSuite) TestMalformedInput() {
	s.send(s.message("a", "!newgame"))

	for _, content := range []string{
		"!record 30",
		"!record game1",
		"!record game1 lots",
		"!record gamex 30",
		"!revert",
		"!game",
		"!progress game1 2",
	} {
		text, _ := s.send(s.message("a", content))
		s.Contains(text, "❌", content)
	}

	s.Equal(7.0, testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("record", "MALFORMED_INPUT"))+
		testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("revert", "MALFORMED_INPUT"))+
		testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("game", "MALFORMED_INPUT"))+
		testutil.ToFloat64(s.metrics.CommandsHandled.WithLabelValues("progress", "MALFORMED_INPUT")))
}

func (s *HandlerTestSuite) TestExpiredReplyContextIsIgnored() {
	_, gameMsg := s.send(s.message("a", "!newgame"))
	s.now = s.now.Add(2 * time.Hour)

	msg := s.message("a", "!record 30")
	msg.ReplyToID = gameMsg
	text, _ := s.send(msg)

	s.Contains(text, "game code is required")
}

func (s *HandlerTestSuite) TestReplyContextFromAnotherGroupIsIgnored() {
	_, gameMsg := s.send(s.message("a", "!newgame"))

	msg := s.message("a", "!record 30")
	msg.GroupExternalID = "guild-2"
	msg.ReplyToID = gameMsg
	text, _ := s.send(msg)

	s.Contains(text, "game code is required")
}

func (s *HandlerTestSuite) TestShowGame() {
	s.send(s.message("a", "!newgame"))

	text, id := s.send(s.message("b", "!game 1"))

	s.Contains(text, "Game 1")
	s.Contains(text, "Promoter: A")
	_, ok := s.cache.Get(id)
	s.True(ok)

	text, _ = s.send(s.message("b", "!game 9"))
	s.Contains(text, "Game 9 not found")
}

func (s *HandlerTestSuite) TestDeleteGameIsNotRemembered() {
	_, gameMsg := s.send(s.message("a", "!newgame"))

	msg := s.message("a", "!deletegame")
	msg.ReplyToID = gameMsg
	text, id := s.send(msg)

	s.Equal("Game 1 deleted", text)
	_, ok := s.cache.Get(id)
	s.False(ok, "The delete confirmation is not a reply context")

	text, _ = s.send(s.message("a", "!record game1 30"))
	s.Contains(text, "Game 1 has been deleted")
}

func (s *HandlerTestSuite) TestProgress() {
	s.send(s.message("a", "!newgame"))

	text, _ := s.send(s.message("a", "!progress game1 3 1"))

	s.Contains(text, "Progress: round 3, honba 1")
}

func (s *HandlerTestSuite) TestHelp() {
	text, id := s.send(s.message("a", "!help"))

	s.Contains(text, "!newgame")
	_, ok := s.cache.Get(id)
	s.False(ok)
}

func (s *HandlerTestSuite) TestSendFailureIsReturned() {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("offline"))
	handler := NewHandler(s.games, s.users, s.cache, sender)

	err := handler.Handle(s.ctx, s.message("a", "!newgame"))

	s.Error(err)
	s.Equal(0, s.cache.Len(), "Nothing is remembered without a sent reply")
}

func (s *HandlerTestSuite) TestCommandNamesAreCaseInsensitive() {
	text, _ := s.send(s.message("a", "!NewGame South"))

	s.Contains(text, "Four-player South")
}

func (s *HandlerTestSuite) TestStandings() {
	// Setup
	s.send(s.message("a", "!newgame"))
	for _, p := range []struct {
		user  string
		score int
	}{{"a", 30}, {"b", 30}, {"c", 20}, {"d", 20}} {
		s.send(s.message(p.user, fmt.Sprintf("!record game1 %d", p.score)))
	}
	s.send(s.message("a", "!newgame"))
	s.send(s.message("a", "!record game2 40"))

	// Execute
	text, id := s.send(s.message("b", "!standings"))

	// Assert
	s.Contains(text, "Standings (1 games)")
	s.Contains(text, "#1  A    +20")
	s.Contains(text, "#4  D    -20")
	_, ok := s.cache.Get(id)
	s.False(ok, "Standings are not a game context")

	text, _ = s.send(s.message("b", "!standings first"))
	s.Contains(text, "❌")
}

func (s *HandlerTestSuite) TestStandingsDisabled() {
	handler := NewHandler(s.games, s.users, s.cache, s.sender)

	s.Require().NoError(handler.Handle(s.ctx, s.message("a", "!standings")))

	s.Contains(s.sent[len(s.sent)-1], "Standings are not available")
}
