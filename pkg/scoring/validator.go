// Package scoring decides a game's lifecycle state from its ruleset and the
// results recorded so far. Nothing here performs I/O; the same mode and
// records always produce the same state and rank points.
package scoring

import (
	"sort"
	"time"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

// Outcome is the result of validating a record set
type Outcome struct {
	State entities.GameState
	Total int
	// Points maps participant to rank point; empty unless State is accepted
	Points map[string]int
	// Order lists participants by finishing position; empty unless accepted
	Order []string
}

// Validate computes the state of records under rules:
//
//	fewer records than PlayerCount   -> pending
//	PlayerCount records, wrong total -> inconsistent
//	PlayerCount records, right total -> accepted, with rank points
//
// More records than PlayerCount cannot be produced through the record
// service and is reported as inconsistent.
func Validate(rules *Ruleset, records []*entities.Result) Outcome {
	total := 0
	for _, r := range records {
		total += r.Score
	}

	out := Outcome{Total: total, Points: map[string]int{}}

	switch {
	case len(records) < rules.PlayerCount:
		out.State = entities.StatePending
		return out
	case len(records) > rules.PlayerCount, total != rules.ExpectedTotal:
		out.State = entities.StateInconsistent
		return out
	}

	out.State = entities.StateAccepted

	ranked := make([]*entities.Result, len(records))
	copy(ranked, records)
	// Ties keep recording order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	origin := rules.Origin()
	for rank, r := range ranked {
		out.Points[r.ParticipantID] = r.Score - origin + rules.Uma[rank]
		out.Order = append(out.Order, r.ParticipantID)
	}
	return out
}

// Apply validates game and overwrites its state, every record's rank point
// and its completion time. It returns the state the game had before.
func Apply(rules *Ruleset, game *entities.Game, now time.Time) entities.GameState {
	previous := game.State
	out := Validate(rules, game.Records)

	game.State = out.State
	for _, r := range game.Records {
		r.RankPoint = out.Points[r.ParticipantID]
	}

	switch {
	case out.State != entities.StateAccepted:
		game.CompleteTime = nil
	case previous != entities.StateAccepted || game.CompleteTime == nil:
		t := now
		game.CompleteTime = &t
	}

	return previous
}

// CanRecord reports whether participant may record a result: either they
// already have one to replace, or there is room for another participant.
func CanRecord(rules *Ruleset, game *entities.Game, participantID string) bool {
	if _, i := game.FindRecord(participantID); i >= 0 {
		return true
	}
	return len(game.Records) < rules.PlayerCount
}
