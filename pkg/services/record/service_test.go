package record

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/fadedpez/scoreboard/pkg/metrics"
	gameRepo "github.com/fadedpez/scoreboard/pkg/repositories/game"
	mock_game "github.com/fadedpez/scoreboard/pkg/repositories/game/mock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const group = "group-1"

type ServiceTestSuite struct {
	suite.Suite
	repo    *gameRepo.MemoryRepository
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	s.repo = gameRepo.NewMemoryRepository()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = NewService(s.repo,
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceTestSuite) newGame() *entities.Game {
	game, err := s.service.Create(s.ctx, "promoter", group, entities.ModeFourPlayerSouth)
	s.Require().NoError(err)
	return game
}

func (s *ServiceTestSuite) record(code int, participant string, score int) *entities.Game {
	game, err := s.service.RecordResult(s.ctx, group, code, participant, score)
	s.Require().NoError(err)
	return game
}

func (s *ServiceTestSuite) TestCreate() {
	// Execute
	game, err := s.service.Create(s.ctx, "promoter", group, entities.ModeFourPlayerEast)

	// Assert
	s.Require().NoError(err)
	s.Equal(1, game.Code)
	s.Equal(entities.StatePending, game.State)
	s.Equal(entities.ModeFourPlayerEast, game.Mode)
	s.Equal("promoter", game.PromoterID)
	s.True(game.Accessible)
	s.Empty(game.Records)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.GamesCreated))
}

func (s *ServiceTestSuite) TestCreateDefaultsToSouth() {
	game, err := s.service.Create(s.ctx, "promoter", group, "")

	s.Require().NoError(err)
	s.Equal(entities.ModeFourPlayerSouth, game.Mode)
}

func (s *ServiceTestSuite) TestCreateInvalidMode() {
	game, err := s.service.Create(s.ctx, "promoter", group, entities.Mode("three-player-east"))

	s.Nil(game)
	s.True(types.IsGameError(err, types.ErrInvalidMode))
}

func (s *ServiceTestSuite) TestAcceptedThenRevertBecomesPending() {
	// Setup
	game := s.newGame()
	s.record(game.Code, "A", 30)
	s.record(game.Code, "B", 30)
	s.record(game.Code, "C", 20)

	// Execute
	accepted := s.record(game.Code, "D", 20)

	// Assert
	s.Equal(entities.StateAccepted, accepted.State)
	s.Require().NotNil(accepted.CompleteTime)
	s.True(s.now.Equal(*accepted.CompleteTime))
	points := map[string]int{}
	for _, r := range accepted.Records {
		points[r.ParticipantID] = r.RankPoint
	}
	s.Equal(map[string]int{"A": 20, "B": 10, "C": -10, "D": -20}, points)

	// Execute
	reverted, err := s.service.RevertResult(s.ctx, group, game.Code, "A", "admin")

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.StatePending, reverted.State)
	s.Len(reverted.Records, 3)
	s.Nil(reverted.CompleteTime)
	for _, r := range reverted.Records {
		s.Zero(r.RankPoint)
	}

	stored, err := s.service.GetByCode(s.ctx, group, game.Code)
	s.Require().NoError(err)
	s.Equal(entities.StatePending, stored.State)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.GameTransitions.WithLabelValues("PENDING", "ACCEPTED")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.GameTransitions.WithLabelValues("ACCEPTED", "PENDING")))
}

func (s *ServiceTestSuite) TestInconsistentThenCorrected() {
	// Setup
	game := s.newGame()
	s.record(game.Code, "A", 30)
	s.record(game.Code, "B", 30)
	s.record(game.Code, "C", 20)

	// Execute
	inconsistent := s.record(game.Code, "D", 10)

	// Assert
	s.Equal(entities.StateInconsistent, inconsistent.State)
	s.Nil(inconsistent.CompleteTime)

	// Execute
	corrected := s.record(game.Code, "D", 20)

	// Assert
	s.Equal(entities.StateAccepted, corrected.State)
	s.Require().Len(corrected.Records, 4)
	s.Equal("D", corrected.Records[3].ParticipantID, "A replaced result keeps its position")
	s.Equal(20, corrected.Records[3].Score)
}

func (s *ServiceTestSuite) TestRevertIsIdempotent() {
	// Setup
	game := s.newGame()
	s.record(game.Code, "A", 30)
	s.record(game.Code, "B", 30)

	// Execute
	first, err := s.service.RevertResult(s.ctx, group, game.Code, "A", "A")
	s.Require().NoError(err)
	second, err := s.service.RevertResult(s.ctx, group, game.Code, "A", "A")
	s.Require().NoError(err)

	// Assert
	s.Equal(first.State, second.State)
	s.Equal(first.Records, second.Records)

	history, err := s.service.History(s.ctx, group, game.Code)
	s.Require().NoError(err)
	s.Len(history, 3, "The no-op revert is not saved")
}

func (s *ServiceTestSuite) TestRevertLastResultOfInconsistentGame() {
	game := s.newGame()
	s.record(game.Code, "A", 30)
	s.record(game.Code, "B", 30)
	s.record(game.Code, "C", 20)
	s.record(game.Code, "D", 10)

	reverted, err := s.service.RevertResult(s.ctx, group, game.Code, "D", "D")

	s.Require().NoError(err)
	s.Equal(entities.StatePending, reverted.State)
}

func (s *ServiceTestSuite) TestCapacityExceeded() {
	// Setup
	game := s.newGame()
	for _, p := range []string{"A", "B", "C", "D"} {
		s.record(game.Code, p, 25)
	}

	// Execute
	_, err := s.service.RecordResult(s.ctx, group, game.Code, "E", 10)

	// Assert
	s.True(types.IsGameError(err, types.ErrCapacityExceeded))
	stored, err := s.service.GetByCode(s.ctx, group, game.Code)
	s.Require().NoError(err)
	s.Len(stored.Records, 4)
	s.Equal(entities.StateAccepted, stored.State)

	// Replacing an existing participant is still allowed on a full game
	replaced := s.record(game.Code, "A", 40)
	s.Equal(entities.StateInconsistent, replaced.State)
}

func (s *ServiceTestSuite) TestStateIsPureFunctionOfRecords() {
	game := s.newGame()
	s.record(game.Code, "A", 30)
	s.record(game.Code, "B", 30)
	s.record(game.Code, "C", 20)
	s.record(game.Code, "D", 20)
	s.record(game.Code, "D", 10)
	back := s.record(game.Code, "D", 20)

	other := s.newGame()
	s.record(other.Code, "A", 30)
	s.record(other.Code, "B", 30)
	s.record(other.Code, "C", 20)
	fresh := s.record(other.Code, "D", 20)

	s.Equal(fresh.State, back.State)
	for i := range fresh.Records {
		s.Equal(fresh.Records[i].RankPoint, back.Records[i].RankPoint)
	}
}

func (s *ServiceTestSuite) TestUnknownGame() {
	_, err := s.service.RecordResult(s.ctx, group, 99, "A", 30)
	s.True(types.IsGameError(err, types.ErrGameNotFound))

	_, err = s.service.RevertResult(s.ctx, group, 99, "A", "A")
	s.True(types.IsGameError(err, types.ErrGameNotFound))

	game, err := s.service.LookupByCode(s.ctx, group, 99)
	s.NoError(err)
	s.Nil(game)
}

func (s *ServiceTestSuite) TestDelete() {
	// Setup
	game := s.newGame()

	// Execute
	deleted, err := s.service.Delete(s.ctx, group, game.Code, "admin")

	// Assert
	s.Require().NoError(err)
	s.False(deleted.Accessible)
	s.Require().NotNil(deleted.DeletedAt)

	lookup, err := s.service.LookupByCode(s.ctx, group, game.Code)
	s.NoError(err)
	s.Nil(lookup, "Deleted games are invisible to lookups")

	_, err = s.service.GetByCode(s.ctx, group, game.Code)
	s.True(types.IsGameError(err, types.ErrGameNotAccessible))

	_, err = s.service.RecordResult(s.ctx, group, game.Code, "A", 30)
	s.True(types.IsGameError(err, types.ErrGameNotAccessible))

	_, err = s.service.Delete(s.ctx, group, game.Code, "admin")
	s.True(types.IsGameError(err, types.ErrGameNotAccessible))

	_, err = s.service.Delete(s.ctx, group, 99, "admin")
	s.True(types.IsGameError(err, types.ErrGameNotFound))
}

func (s *ServiceTestSuite) TestSetProgress() {
	game := s.newGame()

	updated, err := s.service.SetProgress(s.ctx, group, game.Code, entities.Progress{Round: 5, Honba: 2}, "A")

	s.Require().NoError(err)
	s.Equal(&entities.Progress{Round: 5, Honba: 2}, updated.Progress)
	s.Equal(entities.StatePending, updated.State)

	_, err = s.service.SetProgress(s.ctx, group, game.Code, entities.Progress{Round: 0}, "A")
	s.True(types.IsGameError(err, types.ErrMalformedInput))
	_, err = s.service.SetProgress(s.ctx, group, game.Code, entities.Progress{Round: 1, Honba: -1}, "A")
	s.True(types.IsGameError(err, types.ErrMalformedInput))
}

func (s *ServiceTestSuite) TestHistoryRecordsOperators() {
	game := s.newGame()
	s.record(game.Code, "A", 30)
	_, err := s.service.RevertResult(s.ctx, group, game.Code, "A", "admin")
	s.Require().NoError(err)

	history, err := s.service.History(s.ctx, group, game.Code)

	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(gameRepo.ActionRecord, history[0].Action)
	s.Equal("A", history[0].OperatorID)
	s.Equal(gameRepo.ActionRevert, history[1].Action)
	s.Equal("admin", history[1].OperatorID)
	s.Equal("A", history[1].ParticipantID)
	s.True(s.now.Equal(history[1].At))
}

func (s *ServiceTestSuite) TestConcurrentRecordsAreSerialized() {
	// Setup
	game := s.newGame()
	participants := []string{"A", "B", "C", "D"}

	// Execute
	var wg sync.WaitGroup
	for _, p := range participants {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, err := s.service.RecordResult(s.ctx, group, game.Code, p, 25)
			s.NoError(err)
		}(p)
	}
	wg.Wait()

	// Assert
	stored, err := s.service.GetByCode(s.ctx, group, game.Code)
	s.Require().NoError(err)
	s.Len(stored.Records, 4, "No update may be lost")
	s.Equal(entities.StateAccepted, stored.State)
	s.Zero(s.service.locks.len(), "Idle games hold no lock entry")
}

func (s *ServiceTestSuite) TestCancelledContextWhileWaiting() {
	game := s.newGame()
	release, err := s.service.locks.acquire(s.ctx, lockKey(group, game.Code))
	s.Require().NoError(err)
	defer release()

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err = s.service.RecordResult(ctx, group, game.Code, "A", 30)

	s.True(types.IsGameError(err, types.ErrInternalError))
	s.ErrorIs(err, context.Canceled)
}

// Error paths that need a failing repository

type ServiceRepositoryErrorTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	repo    *mock_game.MockRepository
	service *Service
	ctx     context.Context
}

func TestServiceRepositoryErrorSuite(t *testing.T) {
	suite.Run(t, new(ServiceRepositoryErrorTestSuite))
}

func (s *ServiceRepositoryErrorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.repo = mock_game.NewMockRepository(s.ctrl)
	s.service = NewService(s.repo)
}

func pendingGame() *entities.Game {
	return &entities.Game{
		ID:         "game-1",
		Code:       1,
		GroupID:    group,
		Mode:       entities.ModeFourPlayerSouth,
		State:      entities.StatePending,
		Records:    []*entities.Result{},
		Accessible: true,
	}
}

func (s *ServiceRepositoryErrorTestSuite) TestCreateFailureIsDatabaseError() {
	s.repo.EXPECT().CreateGame(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))

	_, err := s.service.Create(s.ctx, "promoter", group, "")

	s.True(types.IsGameError(err, types.ErrDatabaseError))
}

func (s *ServiceRepositoryErrorTestSuite) TestLoadFailureIsDatabaseError() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(nil, errors.New("locked"))

	_, err := s.service.RecordResult(s.ctx, group, 1, "A", 30)
	s.True(types.IsGameError(err, types.ErrDatabaseError))
}

func (s *ServiceRepositoryErrorTestSuite) TestLookupSurfacesStorageFailure() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(nil, errors.New("locked"))

	game, err := s.service.LookupByCode(s.ctx, group, 1)

	s.Nil(game)
	s.True(types.IsGameError(err, types.ErrDatabaseError))
}

func (s *ServiceRepositoryErrorTestSuite) TestSaveFailureIsDatabaseError() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(pendingGame(), nil)
	s.repo.EXPECT().SaveGame(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, err := s.service.RecordResult(s.ctx, group, 1, "A", 30)

	s.True(types.IsGameError(err, types.ErrDatabaseError))
}

func (s *ServiceRepositoryErrorTestSuite) TestGameVanishedBeforeSave() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(pendingGame(), nil)
	s.repo.EXPECT().SaveGame(gomock.Any(), gomock.Any(), gomock.Any()).Return(gameRepo.ErrGameNotFound)

	_, err := s.service.RecordResult(s.ctx, group, 1, "A", 30)

	s.True(types.IsGameError(err, types.ErrGameNotFound))
}

func (s *ServiceRepositoryErrorTestSuite) TestSavedAuditDescribesChange() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(pendingGame(), nil)
	s.repo.EXPECT().SaveGame(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, game *entities.Game, audit gameRepo.Audit) error {
			s.Len(game.Records, 1)
			s.Equal(gameRepo.ActionRecord, audit.Action)
			s.Equal("A", audit.OperatorID)
			s.Equal("A", audit.ParticipantID)
			return nil
		})

	_, err := s.service.RecordResult(s.ctx, group, 1, "A", 30)

	s.NoError(err)
}

func (s *ServiceRepositoryErrorTestSuite) TestNoOpRevertSkipsSave() {
	s.repo.EXPECT().GetGameByCode(gomock.Any(), group, 1).Return(pendingGame(), nil)

	game, err := s.service.RevertResult(s.ctx, group, 1, "A", "A")

	s.Require().NoError(err)
	s.Equal(entities.StatePending, game.State)
}
