package scoring

import (
	"fmt"

	"github.com/fadedpez/scoreboard/pkg/entities"
)

// Ruleset fixes how many participants a mode expects, what their scores must
// sum to, and the rank bonus (uma) awarded per finishing position.
type Ruleset struct {
	Mode          entities.Mode
	PlayerCount   int
	ExpectedTotal int
	Uma           []int // Indexed by rank, first place at 0
}

// Origin is the score each participant starts from; rank points measure
// distance from it.
func (r *Ruleset) Origin() int {
	return r.ExpectedTotal / r.PlayerCount
}

// Validate checks the ruleset is internally consistent
func (r *Ruleset) Validate() error {
	if r.Mode == "" {
		return fmt.Errorf("ruleset has no mode")
	}
	if r.PlayerCount <= 0 {
		return fmt.Errorf("ruleset %s: player count must be positive", r.Mode)
	}
	if len(r.Uma) != r.PlayerCount {
		return fmt.Errorf("ruleset %s: uma table has %d entries, want %d", r.Mode, len(r.Uma), r.PlayerCount)
	}
	sum := 0
	for _, u := range r.Uma {
		sum += u
	}
	if sum != 0 {
		return fmt.Errorf("ruleset %s: uma table sums to %d, want 0", r.Mode, sum)
	}
	return nil
}

// FourPlayerEast is the east-only ruleset. Scores are in thousands.
func FourPlayerEast() *Ruleset {
	return &Ruleset{
		Mode:          entities.ModeFourPlayerEast,
		PlayerCount:   4,
		ExpectedTotal: 100,
		Uma:           []int{10, 5, -5, -10},
	}
}

// FourPlayerSouth is the east-south ruleset. Scores are in thousands.
func FourPlayerSouth() *Ruleset {
	return &Ruleset{
		Mode:          entities.ModeFourPlayerSouth,
		PlayerCount:   4,
		ExpectedTotal: 100,
		Uma:           []int{15, 5, -5, -15},
	}
}
