// Package render turns games into the plain text replies sent to chat.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

// NameFunc resolves a participant ID to a display name
type NameFunc func(participantID string) string

// Options controls optional sections of a rendered game
type Options struct {
	ShowPromoter bool
}

var modeLabels = map[entities.Mode]string{
	entities.ModeFourPlayerEast:  "Four-player East",
	entities.ModeFourPlayerSouth: "Four-player South",
}

var stateLabels = map[entities.GameState]string{
	entities.StatePending:      "In progress",
	entities.StateAccepted:     "Complete",
	entities.StateInconsistent: "Scores do not add up",
}

// ModeLabel returns the display name of a mode
func ModeLabel(mode entities.Mode) string {
	if label, ok := modeLabels[mode]; ok {
		return label
	}
	return string(mode)
}

// StateLabel returns the display name of a state
func StateLabel(state entities.GameState) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return string(state)
}

// Game writes game to w:
//
//	Game 3  Four-player South
//	Season: none
//	State: Complete
//	Promoter: Alice
//
//	#1  Alice    30  (+20)
//
// Records are ranked by rank point once the game is accepted and by score
// before that. game is never modified.
func Game(w io.Writer, game *entities.Game, names NameFunc, opts Options) error {
	if names == nil {
		names = func(id string) string { return id }
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Game %d  %s\n", game.Code, ModeLabel(game.Mode))

	b.WriteString("Season: ")
	if game.SeasonID == nil {
		b.WriteString("none")
	} else {
		b.WriteString(*game.SeasonID)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "State: %s\n", StateLabel(game.State))

	if game.Progress != nil && game.State != entities.StateAccepted {
		fmt.Fprintf(&b, "Progress: round %d, honba %d\n", game.Progress.Round, game.Progress.Honba)
	}

	if opts.ShowPromoter {
		fmt.Fprintf(&b, "Promoter: %s\n", names(game.PromoterID))
	}

	if len(game.Records) > 0 {
		b.WriteString("\n")

		accepted := game.State == entities.StateAccepted
		for i, r := range ranked(game.Records, accepted) {
			fmt.Fprintf(&b, "#%d  %s    %d", i+1, names(r.ParticipantID), r.Score)
			if accepted {
				fmt.Fprintf(&b, "  (%s)", Points(r.RankPoint))
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// GameString is Game rendered into a string
func GameString(game *entities.Game, names NameFunc, opts Options) string {
	var b strings.Builder
	Game(&b, game, names, opts)
	return b.String()
}

// Points formats a rank point with an explicit sign: +5, ±0, -5
func Points(p int) string {
	switch {
	case p > 0:
		return fmt.Sprintf("+%d", p)
	case p == 0:
		return "±0"
	}
	return fmt.Sprintf("%d", p)
}

func ranked(records []*entities.Result, byRankPoint bool) []*entities.Result {
	out := make([]*entities.Result, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if byRankPoint {
			return out[i].RankPoint > out[j].RankPoint
		}
		return out[i].Score > out[j].Score
	})
	return out
}
