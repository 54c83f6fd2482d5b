package render

import (
	"testing"

	"github.com/fadedpez/scoreboard/pkg/services/statistics"
	"github.com/stretchr/testify/assert"
)

func TestStandings(t *testing.T) {
	board := &statistics.Leaderboard{
		Players: []*statistics.Standing{
			{ParticipantID: "a", Rank: 1, GamesPlayed: 4, TotalPoints: 45, Firsts: 2, AveragePlace: 1.75},
			{ParticipantID: "b", Rank: 2, GamesPlayed: 4, TotalPoints: 0, Firsts: 1, AveragePlace: 2.5},
		},
		TotalPlayers: 5,
		GamesCounted: 4,
		CurrentPage:  1,
		TotalPages:   3,
	}

	out := StandingsString(board, nameOf)

	expected := "Standings (4 games)\n" +
		"\n" +
		"#1  Alice    +45  4 games, 2 firsts, avg place 1.75\n" +
		"#2  Bob    ±0  4 games, 1 firsts, avg place 2.50\n" +
		"\n" +
		"Page 1/3\n"
	assert.Equal(t, expected, out)
}

func TestStandingsEmpty(t *testing.T) {
	out := StandingsString(&statistics.Leaderboard{CurrentPage: 1}, nil)

	assert.Equal(t, "Standings (0 games)\n\nNo complete games yet\n", out)
}
