// Package commands parses chat commands, resolves the game a reply refers
// to and drives the record service. It knows nothing about the transport
// beyond Message and Sender.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/fadedpez/scoreboard/pkg/correlation"
	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/fadedpez/scoreboard/pkg/metrics"
	"github.com/fadedpez/scoreboard/pkg/render"
	"github.com/fadedpez/scoreboard/pkg/repositories/identity"
	"github.com/fadedpez/scoreboard/pkg/services/statistics"
)

// Prefix starts every command
const Prefix = "!"

// Keys stored in a reply context's extra
const (
	extraGroupID = "group_id"
	extraUserID  = "user_id"
)

// GameService is the part of record.Service the commands use
type GameService interface {
	Create(ctx context.Context, promoterID, groupID string, mode entities.Mode) (*entities.Game, error)
	RecordResult(ctx context.Context, groupID string, code int, participantID string, score int) (*entities.Game, error)
	RevertResult(ctx context.Context, groupID string, code int, participantID, operatorID string) (*entities.Game, error)
	SetProgress(ctx context.Context, groupID string, code int, progress entities.Progress, operatorID string) (*entities.Game, error)
	Delete(ctx context.Context, groupID string, code int, operatorID string) (*entities.Game, error)
	GetByCode(ctx context.Context, groupID string, code int) (*entities.Game, error)
}

// StandingsService is the part of statistics.Service the commands use
type StandingsService interface {
	GetLeaderboard(ctx context.Context, groupID string, page, playersPerPage int) (*statistics.Leaderboard, error)
}

// standingsPageSize is how many participants one standings reply lists
const standingsPageSize = 10

// Handler dispatches chat commands
type Handler struct {
	games     GameService
	standings StandingsService
	users   identity.Repository
	cache   *correlation.Cache
	sender  Sender
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithMetrics counts handled commands by outcome
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithStandings enables the standings command
func WithStandings(s StandingsService) Option {
	return func(h *Handler) {
		h.standings = s
	}
}

// WithLogger sets the handler logger
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// NewHandler creates a command handler. cache is shared with nothing else
// and owned by the caller.
func NewHandler(games GameService, users identity.Repository, cache *correlation.Cache, sender Sender, opts ...Option) *Handler {
	h := &Handler{
		games:  games,
		users:  users,
		cache:  cache,
		sender: sender,
		logger: logging.Discard,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("commands")
	return h
}

// request is one command being handled
type request struct {
	msg     Message
	name    string
	args    args
	groupID string
	author  *entities.User
	context *correlation.Entry
}

// contextCode returns the game code of the replied message, or 0
func (r *request) contextCode() int {
	if r.context == nil {
		return 0
	}
	code, _ := strconv.Atoi(r.context.SubjectID)
	return code
}

// reply is what a command answers with
type reply struct {
	text string
	game *entities.Game // Replies about a game are remembered for follow-ups
	user string         // Participant the follow-up refers to, if any
}

type command func(ctx context.Context, req *request) (*reply, error)

func (h *Handler) commands() map[string]command {
	return map[string]command{
		"newgame":    h.handleNewGame,
		"record":     h.handleRecord,
		"revert":     h.handleRevert,
		"game":       h.handleGame,
		"deletegame": h.handleDeleteGame,
		"progress":   h.handleProgress,
		"standings":  h.handleStandings,
		"help":       h.handleHelp,
	}
}

// Handle runs the command in msg, if it holds one. Command failures are
// answered in chat; only a failure to answer is returned.
func (h *Handler) Handle(ctx context.Context, msg Message) error {
	content := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(content, Prefix) {
		return nil
	}

	fields := strings.Fields(strings.TrimPrefix(content, Prefix))
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	run, ok := h.commands()[name]
	if !ok {
		return nil
	}

	req := &request{msg: msg, name: name, args: parseArgs(fields[1:])}

	var rep *reply
	err := h.prepare(ctx, req)
	if err == nil {
		rep, err = run(ctx, req)
	}
	if err != nil {
		h.metrics.ObserveCommand(name, string(types.CodeOf(err)))
		h.logger.LogError(err)
		_, sendErr := h.sender.Send(ctx, msg.ChannelID, errorText(err))
		return sendErr
	}

	h.metrics.ObserveCommand(name, "ok")

	messageID, err := h.sender.Send(ctx, msg.ChannelID, rep.text)
	if err != nil {
		return fmt.Errorf("error sending reply: %w", err)
	}

	if rep.game != nil {
		extra := map[string]any{extraGroupID: req.groupID}
		if rep.user != "" {
			extra[extraUserID] = rep.user
		}
		h.cache.Put(messageID, strconv.Itoa(rep.game.Code), extra)
	}

	return nil
}

// prepare resolves the group, the author and the replied-to context
func (h *Handler) prepare(ctx context.Context, req *request) error {
	group, err := h.users.GetOrCreateGroup(ctx, req.msg.GroupExternalID)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "Failed to load the group", err)
	}
	req.groupID = group.ID

	author, err := h.users.GetOrCreateUser(ctx, req.msg.Author.ExternalID, req.msg.Author.Name)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "Failed to load the user", err)
	}
	req.author = author

	if req.msg.ReplyToID != "" {
		if entry, ok := h.cache.Get(req.msg.ReplyToID); ok && entry.Text(extraGroupID) == group.ID {
			req.context = &entry
		}
	}

	return nil
}

// participant resolves who a result command is about: the first mention,
// then the replied context's user, then the author
func (h *Handler) participant(ctx context.Context, req *request, useContext bool) (string, error) {
	if len(req.msg.Mentions) > 0 {
		m := req.msg.Mentions[0]
		user, err := h.users.GetOrCreateUser(ctx, m.ExternalID, m.Name)
		if err != nil {
			return "", types.WrapError(types.ErrDatabaseError, "Failed to load the user", err)
		}
		return user.ID, nil
	}
	if useContext && req.context != nil {
		if id := req.context.Text(extraUserID); id != "" {
			return id, nil
		}
	}
	return req.author.ID, nil
}

func (h *Handler) handleNewGame(ctx context.Context, req *request) (*reply, error) {
	var mode entities.Mode
	if len(req.args.numbers) > 0 {
		name := strings.ToLower(req.args.numbers[0])
		parsed, ok := entities.ParseMode(name)
		if !ok {
			return nil, types.NewGameError(types.ErrInvalidMode, fmt.Sprintf("Unknown mode %q, use east or south", name))
		}
		mode = parsed
	}

	game, err := h.games.Create(ctx, req.author.ID, req.groupID, mode)
	if err != nil {
		return nil, err
	}
	return h.gameReply(ctx, game, "", true), nil
}

func (h *Handler) handleRecord(ctx context.Context, req *request) (*reply, error) {
	code, err := resolveCode(req.args.code, req.contextCode())
	if err != nil {
		return nil, err
	}

	var scoreArg string
	if len(req.args.numbers) > 0 {
		scoreArg = req.args.numbers[0]
	}
	score, err := parseInt("score", scoreArg)
	if err != nil {
		return nil, err
	}

	participantID, err := h.participant(ctx, req, false)
	if err != nil {
		return nil, err
	}

	game, err := h.games.RecordResult(ctx, req.groupID, code, participantID, score)
	if err != nil {
		return nil, err
	}
	return h.gameReply(ctx, game, participantID, false), nil
}

func (h *Handler) handleRevert(ctx context.Context, req *request) (*reply, error) {
	code, err := resolveCode(req.args.code, req.contextCode())
	if err != nil {
		return nil, err
	}

	participantID, err := h.participant(ctx, req, true)
	if err != nil {
		return nil, err
	}

	game, err := h.games.RevertResult(ctx, req.groupID, code, participantID, req.author.ID)
	if err != nil {
		return nil, err
	}
	return h.gameReply(ctx, game, participantID, false), nil
}

func (h *Handler) handleGame(ctx context.Context, req *request) (*reply, error) {
	code, err := resolveCode(plainCode(req.args), req.contextCode())
	if err != nil {
		return nil, err
	}

	game, err := h.games.GetByCode(ctx, req.groupID, code)
	if err != nil {
		return nil, err
	}
	return h.gameReply(ctx, game, "", true), nil
}

func (h *Handler) handleDeleteGame(ctx context.Context, req *request) (*reply, error) {
	code, err := resolveCode(plainCode(req.args), req.contextCode())
	if err != nil {
		return nil, err
	}

	if _, err := h.games.Delete(ctx, req.groupID, code, req.author.ID); err != nil {
		return nil, err
	}
	return &reply{text: fmt.Sprintf("Game %d deleted", code)}, nil
}

func (h *Handler) handleProgress(ctx context.Context, req *request) (*reply, error) {
	code, err := resolveCode(req.args.code, req.contextCode())
	if err != nil {
		return nil, err
	}

	var roundArg, honbaArg string
	if len(req.args.numbers) > 0 {
		roundArg = req.args.numbers[0]
	}
	if len(req.args.numbers) > 1 {
		honbaArg = req.args.numbers[1]
	}
	round, err := parseInt("round", roundArg)
	if err != nil {
		return nil, err
	}
	honba, err := parseInt("honba", honbaArg)
	if err != nil {
		return nil, err
	}

	progress := entities.Progress{Round: round, Honba: honba}
	game, err := h.games.SetProgress(ctx, req.groupID, code, progress, req.author.ID)
	if err != nil {
		return nil, err
	}
	return h.gameReply(ctx, game, "", false), nil
}

func (h *Handler) handleStandings(ctx context.Context, req *request) (*reply, error) {
	if h.standings == nil {
		return nil, types.NewGameError(types.ErrInternalError, "Standings are not available")
	}

	page := 1
	if len(req.args.numbers) > 0 {
		n, err := parseInt("page", req.args.numbers[0])
		if err != nil {
			return nil, err
		}
		page = n
	}

	board, err := h.standings.GetLeaderboard(ctx, req.groupID, page, standingsPageSize)
	if err != nil {
		return nil, err
	}
	return &reply{text: render.StandingsString(board, h.nameResolver(ctx))}, nil
}

func (h *Handler) handleHelp(ctx context.Context, req *request) (*reply, error) {
	return &reply{text: helpText}, nil
}

const helpText = "Commands:\n" +
	"!newgame [east|south]  start a game\n" +
	"!record [game<code>] [@user] <score>  record a score\n" +
	"!revert [game<code>] [@user]  remove a score\n" +
	"!game [<code>]  show a game\n" +
	"!progress [game<code>] <round> <honba>  mark the round reached\n" +
	"!deletegame [<code>]  delete a game\n" +
	"!standings [<page>]  rank players over complete games\n" +
	"Reply to one of my game messages to leave out the game code."

// plainCode lets "game 3" style commands take a bare number
func plainCode(a args) string {
	if a.code != "" {
		return a.code
	}
	if len(a.numbers) > 0 {
		return a.numbers[0]
	}
	return ""
}

func (h *Handler) gameReply(ctx context.Context, game *entities.Game, participantID string, showPromoter bool) *reply {
	text := render.GameString(game, h.nameResolver(ctx), render.Options{ShowPromoter: showPromoter})
	return &reply{text: text, game: game, user: participantID}
}

// nameResolver shows a user's nickname, falling back to their transport ID
func (h *Handler) nameResolver(ctx context.Context) render.NameFunc {
	return func(id string) string {
		user, err := h.users.GetUser(ctx, id)
		if err != nil {
			return id
		}
		if user.Nickname != "" {
			return user.Nickname
		}
		return user.ExternalID
	}
}

func errorText(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		return "❌ " + gameErr.Message
	}
	return "❌ Something went wrong"
}
