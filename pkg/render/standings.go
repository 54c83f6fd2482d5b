package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fadedpez/scoreboard/pkg/services/statistics"
)

// Standings writes one leaderboard page to w:
//
//	Standings (4 games)
//
//	#1  Alice    +45  4 games, 2 firsts, avg place 1.75
//
//	Page 1/2
func Standings(w io.Writer, board *statistics.Leaderboard, names NameFunc) error {
	if names == nil {
		names = func(id string) string { return id }
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Standings (%d games)\n", board.GamesCounted)

	if len(board.Players) == 0 {
		b.WriteString("\nNo complete games yet\n")
	} else {
		b.WriteString("\n")
		for _, st := range board.Players {
			fmt.Fprintf(&b, "#%d  %s    %s  %d games, %d firsts, avg place %.2f\n",
				st.Rank, names(st.ParticipantID), Points(st.TotalPoints),
				st.GamesPlayed, st.Firsts, st.AveragePlace)
		}
	}

	if board.TotalPages > 1 {
		fmt.Fprintf(&b, "\nPage %d/%d\n", board.CurrentPage, board.TotalPages)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// StandingsString is Standings rendered into a string
func StandingsString(board *statistics.Leaderboard, names NameFunc) string {
	var b strings.Builder
	Standings(&b, board, names)
	return b.String()
}
