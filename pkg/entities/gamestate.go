package entities

// GameState is the lifecycle state of a game. It is always derived from the
// game's mode and records, never set by a command.
type GameState string

const (
	StatePending      GameState = "PENDING"
	StateAccepted     GameState = "ACCEPTED"
	StateInconsistent GameState = "INCONSISTENT"
)

// String returns the string representation of the state
func (s GameState) String() string {
	return string(s)
}

// IsComplete reports whether every expected result has been recorded
func (s GameState) IsComplete() bool {
	return s == StateAccepted || s == StateInconsistent
}

// Mode is the ruleset a game is played under
type Mode string

const (
	ModeFourPlayerEast  Mode = "four-player-east"
	ModeFourPlayerSouth Mode = "four-player-south"
)

// DefaultMode is used when a game is created without an explicit mode
const DefaultMode = ModeFourPlayerSouth

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// ParseMode maps the short names users type ("east", "south") and the full
// mode names to a Mode.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "east", string(ModeFourPlayerEast):
		return ModeFourPlayerEast, true
	case "south", string(ModeFourPlayerSouth):
		return ModeFourPlayerSouth, true
	}
	return "", false
}
