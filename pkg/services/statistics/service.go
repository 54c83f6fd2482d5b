// Package statistics aggregates accepted games into per-group standings.
package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/fadedpez/scoreboard/pkg/entities"
	"github.com/fadedpez/scoreboard/pkg/repositories/game"
)

// Service provides methods for retrieving and processing player standings
type Service struct {
	repository game.Repository
	now        func() time.Time
}

// NewService creates a new statistics service
func NewService(repository game.Repository) *Service {
	return &Service{
		repository: repository,
		now:        time.Now,
	}
}

// Standing is one participant's totals over a group's accepted games
type Standing struct {
	ParticipantID string  `json:"participant_id"`
	Rank          int     `json:"rank"`
	GamesPlayed   int     `json:"games_played"`
	TotalPoints   int     `json:"total_points"`
	Firsts        int     `json:"firsts"`
	AveragePlace  float64 `json:"average_place"`
	IsTopWinner   bool    `json:"is_top_winner"`
	IsTopPlayer   bool    `json:"is_top_player"`

	placeSum int
}

// Leaderboard represents a paginated page of standings
type Leaderboard struct {
	Players        []*Standing `json:"players"`
	TotalPlayers   int         `json:"total_players"`
	GamesCounted   int         `json:"games_counted"`
	CurrentPage    int         `json:"current_page"`
	TotalPages     int         `json:"total_pages"`
	PlayersPerPage int         `json:"players_per_page"`
	LastUpdated    time.Time   `json:"last_updated"`
}

// GetLeaderboard ranks the participants of group's accepted games by total
// rank points
func (s *Service) GetLeaderboard(ctx context.Context, groupID string, page, playersPerPage int) (*Leaderboard, error) {
	// Default values
	if page < 1 {
		page = 1
	}
	if playersPerPage < 1 {
		playersPerPage = 10
	}

	games, err := s.repository.ListAcceptedGames(ctx, groupID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "Failed to load the standings", err)
	}

	standings := aggregate(games)

	// Highest total first; more games breaks ties, then the ID keeps the
	// order stable
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.GamesPlayed != b.GamesPlayed {
			return a.GamesPlayed > b.GamesPlayed
		}
		return a.ParticipantID < b.ParticipantID
	})

	if len(standings) > 0 {
		standings[0].IsTopWinner = true

		// Find the player with the most games played
		mostGamesIdx := 0
		for i := 1; i < len(standings); i++ {
			if standings[i].GamesPlayed > standings[mostGamesIdx].GamesPlayed {
				mostGamesIdx = i
			}
		}
		standings[mostGamesIdx].IsTopPlayer = true
	}

	for i := range standings {
		standings[i].Rank = i + 1
	}

	// Calculate pagination
	totalPlayers := len(standings)
	totalPages := (totalPlayers + playersPerPage - 1) / playersPerPage
	if page > totalPages && totalPages > 0 {
		page = totalPages
	}

	start := (page - 1) * playersPerPage
	end := start + playersPerPage
	if end > totalPlayers {
		end = totalPlayers
	}

	currentPagePlayers := []*Standing{}
	if start < totalPlayers {
		currentPagePlayers = standings[start:end]
	}

	return &Leaderboard{
		Players:        currentPagePlayers,
		TotalPlayers:   totalPlayers,
		GamesCounted:   len(games),
		CurrentPage:    page,
		TotalPages:     totalPages,
		PlayersPerPage: playersPerPage,
		LastUpdated:    s.now().UTC(),
	}, nil
}

// aggregate sums every participant's results. A participant's place in a
// game follows rank points, ties keeping record order.
func aggregate(games []*entities.Game) []*Standing {
	byParticipant := make(map[string]*Standing)
	for _, g := range games {
		if g.State != entities.StateAccepted {
			continue
		}

		records := make([]*entities.Result, len(g.Records))
		copy(records, g.Records)
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].RankPoint > records[j].RankPoint
		})

		for place, record := range records {
			st, ok := byParticipant[record.ParticipantID]
			if !ok {
				st = &Standing{ParticipantID: record.ParticipantID}
				byParticipant[record.ParticipantID] = st
			}
			st.GamesPlayed++
			st.TotalPoints += record.RankPoint
			st.placeSum += place + 1
			if place == 0 {
				st.Firsts++
			}
		}
	}

	standings := make([]*Standing, 0, len(byParticipant))
	for _, st := range byParticipant {
		st.AveragePlace = float64(st.placeSum) / float64(st.GamesPlayed)
		standings = append(standings, st)
	}
	return standings
}
