// Package record drives a game through its lifecycle: creation, result
// recording and reversal, progress updates and deletion. Every mutation of
// one game is serialized and validated before it is persisted.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/scoreboard/internal/logging"
	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/fadedpez/scoreboard/pkg/metrics"
	gameRepo "github.com/fadedpez/scoreboard/pkg/repositories/game"
	"github.com/fadedpez/scoreboard/pkg/scoring"
)

// Service handles game lifecycle business logic
type Service struct {
	repo     gameRepo.Repository
	registry *scoring.Registry
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
	locks    *gameLocks
}

// Option configures a Service
type Option func(*Service)

// WithRegistry replaces the default four-player rulesets
func WithRegistry(r *scoring.Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

// WithMetrics reports created games, results and state transitions
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the service logger
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new record service
func NewService(repo gameRepo.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		registry: scoring.DefaultRegistry(),
		logger:   logging.Discard,
		now:      time.Now,
		locks:    newGameLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("record")
	return s
}

// Create starts a pending game in group. An empty mode means
// entities.DefaultMode.
func (s *Service) Create(ctx context.Context, promoterID, groupID string, mode entities.Mode) (*entities.Game, error) {
	if mode == "" {
		mode = entities.DefaultMode
	}
	rules, err := s.registry.Get(mode)
	if err != nil {
		return nil, err
	}

	game := &entities.Game{
		GroupID:    groupID,
		PromoterID: promoterID,
		Mode:       mode,
		Records:    []*entities.Result{},
		Accessible: true,
	}
	scoring.Apply(rules, game, s.now().UTC())

	created, err := s.repo.CreateGame(ctx, game)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to create the game", err)
	}

	s.metrics.GameCreated()
	s.logger.Info("Game %d created in group %s by %s (%s)", created.Code, groupID, promoterID, mode)
	return created, nil
}

// RecordResult stores participant's score, replacing any earlier one in
// place, and revalidates the game
func (s *Service) RecordResult(ctx context.Context, groupID string, code int, participantID string, score int) (*entities.Game, error) {
	game, err := s.mutate(ctx, groupID, code, func(game *entities.Game, rules *scoring.Ruleset) (*gameRepo.Audit, error) {
		if !scoring.CanRecord(rules, game, participantID) {
			return nil, types.NewGameError(types.ErrCapacityExceeded,
				fmt.Sprintf("Game %d already has %d players", game.Code, rules.PlayerCount))
		}

		if existing, _ := game.FindRecord(participantID); existing != nil {
			existing.Score = score
		} else {
			game.Records = append(game.Records, &entities.Result{ParticipantID: participantID, Score: score})
		}

		return &gameRepo.Audit{
			OperatorID:    participantID,
			Action:        gameRepo.ActionRecord,
			ParticipantID: participantID,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ResultRecorded()
	return game, nil
}

// RevertResult removes participant's result if there is one. Reverting a
// result that does not exist returns the game unchanged.
func (s *Service) RevertResult(ctx context.Context, groupID string, code int, participantID, operatorID string) (*entities.Game, error) {
	game, err := s.mutate(ctx, groupID, code, func(game *entities.Game, rules *scoring.Ruleset) (*gameRepo.Audit, error) {
		_, i := game.FindRecord(participantID)
		if i < 0 {
			return nil, nil
		}
		game.Records = append(game.Records[:i], game.Records[i+1:]...)

		return &gameRepo.Audit{
			OperatorID:    operatorID,
			Action:        gameRepo.ActionRevert,
			ParticipantID: participantID,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ResultReverted()
	return game, nil
}

// SetProgress records the round the game has reached. The validator does
// not look at progress.
func (s *Service) SetProgress(ctx context.Context, groupID string, code int, progress entities.Progress, operatorID string) (*entities.Game, error) {
	if progress.Round < 1 {
		return nil, types.NewGameError(types.ErrMalformedInput, "round must be at least 1")
	}
	if progress.Honba < 0 {
		return nil, types.NewGameError(types.ErrMalformedInput, "honba must not be negative")
	}

	return s.mutate(ctx, groupID, code, func(game *entities.Game, rules *scoring.Ruleset) (*gameRepo.Audit, error) {
		p := progress
		game.Progress = &p
		return &gameRepo.Audit{
			OperatorID: operatorID,
			Action:     gameRepo.ActionProgress,
		}, nil
	})
}

// Delete soft-deletes the game. Its code stays allocated.
func (s *Service) Delete(ctx context.Context, groupID string, code int, operatorID string) (*entities.Game, error) {
	game, err := s.mutate(ctx, groupID, code, func(game *entities.Game, rules *scoring.Ruleset) (*gameRepo.Audit, error) {
		deletedAt := s.now().UTC()
		game.Accessible = false
		game.DeletedAt = &deletedAt
		return &gameRepo.Audit{
			OperatorID: operatorID,
			Action:     gameRepo.ActionDelete,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Game %d in group %s deleted by %s", code, groupID, operatorID)
	return game, nil
}

// LookupByCode returns the accessible game with code, or nil when there is
// none. Only storage failures are errors.
func (s *Service) LookupByCode(ctx context.Context, groupID string, code int) (*entities.Game, error) {
	game, err := s.GetByCode(ctx, groupID, code)
	if types.IsGameError(err, types.ErrGameNotFound) || types.IsGameError(err, types.ErrGameNotAccessible) {
		return nil, nil
	}
	return game, err
}

// GetByCode is LookupByCode with typed errors for absent and deleted games
func (s *Service) GetByCode(ctx context.Context, groupID string, code int) (*entities.Game, error) {
	game, err := s.repo.GetGameByCode(ctx, groupID, code)
	if errors.Is(err, gameRepo.ErrGameNotFound) {
		return nil, types.NewGameError(types.ErrGameNotFound, fmt.Sprintf("Game %d not found", code))
	}
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to load the game", err)
	}
	if !game.Accessible {
		return nil, types.NewGameError(types.ErrGameNotAccessible, fmt.Sprintf("Game %d has been deleted", code))
	}
	return game, nil
}

// History returns who changed the game and how, oldest first
func (s *Service) History(ctx context.Context, groupID string, code int) ([]gameRepo.Audit, error) {
	game, err := s.GetByCode(ctx, groupID, code)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.GetHistory(ctx, game.ID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to load the game history", err)
	}
	return history, nil
}

// mutation changes game in place and describes the change for the audit
// trail. A nil audit means nothing changed and nothing is saved.
type mutation func(game *entities.Game, rules *scoring.Ruleset) (*gameRepo.Audit, error)

// mutate runs the read-modify-write cycle for one game while holding that
// game's lock, revalidating before saving
func (s *Service) mutate(ctx context.Context, groupID string, code int, fn mutation) (*entities.Game, error) {
	release, err := s.locks.acquire(ctx, lockKey(groupID, code))
	if err != nil {
		return nil, types.WrapError(types.ErrInternalError, "Request cancelled", err)
	}
	defer release()

	game, err := s.GetByCode(ctx, groupID, code)
	if err != nil {
		return nil, err
	}

	rules, err := s.registry.Get(game.Mode)
	if err != nil {
		return nil, err
	}

	audit, err := fn(game, rules)
	if err != nil {
		return nil, err
	}
	if audit == nil {
		return game, nil
	}

	now := s.now().UTC()
	previous := scoring.Apply(rules, game, now)
	audit.At = now

	if err := s.repo.SaveGame(ctx, game, *audit); err != nil {
		if errors.Is(err, gameRepo.ErrGameNotFound) {
			return nil, types.NewGameError(types.ErrGameNotFound, fmt.Sprintf("Game %d not found", code))
		}
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to save the game", err)
	}

	if previous != game.State {
		s.metrics.ObserveTransition(previous.String(), game.State.String())
		s.logger.Debug("Game %d in group %s: %s -> %s", code, groupID, previous, game.State)
	}
	return game, nil
}
