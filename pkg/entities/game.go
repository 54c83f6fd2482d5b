package entities

import "time"

// Game is one scored contest within a group
type Game struct {
	ID           string     // Durable identity
	Code         int        // Human-facing identifier, unique within the group
	GroupID      string
	PromoterID   string     // User who created the game
	SeasonID     *string
	Mode         Mode
	State        GameState
	Records      []*Result  // At most one per participant, in recording order
	Progress     *Progress  // Optional in-progress round marker
	CompleteTime *time.Time // Set while the game is accepted
	Accessible   bool       // False once the game is soft-deleted
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Result is one participant's reported score within a game
type Result struct {
	ParticipantID string
	Score         int
	RankPoint     int // Only meaningful while the game is accepted
}

// Progress marks the round a game in play has reached
type Progress struct {
	Round    int
	Honba    int
	DealerID string
}

// FindRecord returns the participant's result and its index, or -1
func (g *Game) FindRecord(participantID string) (*Result, int) {
	for i, r := range g.Records {
		if r.ParticipantID == participantID {
			return r, i
		}
	}
	return nil, -1
}

// Clone returns a deep copy so callers can mutate without touching shared
// repository state.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}

	c := *g
	c.Records = make([]*Result, len(g.Records))
	for i, r := range g.Records {
		rc := *r
		c.Records[i] = &rc
	}
	if g.SeasonID != nil {
		s := *g.SeasonID
		c.SeasonID = &s
	}
	if g.Progress != nil {
		p := *g.Progress
		c.Progress = &p
	}
	if g.CompleteTime != nil {
		t := *g.CompleteTime
		c.CompleteTime = &t
	}
	if g.DeletedAt != nil {
		t := *g.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
