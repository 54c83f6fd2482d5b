package scoring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fadedpez/scoreboard/internal/types"
	"github.com/fadedpez/scoreboard/pkg/entities"
)

// Registry manages the rulesets games can be created under
type Registry struct {
	rulesets map[entities.Mode]*Ruleset
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rulesets: make(map[entities.Mode]*Ruleset),
	}
}

// DefaultRegistry returns a registry holding the four-player rulesets
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rules := range []*Ruleset{FourPlayerEast(), FourPlayerSouth()} {
		if err := r.Register(rules); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a ruleset. Registering a mode twice is an error.
func (r *Registry) Register(rules *Ruleset) error {
	if err := rules.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rulesets[rules.Mode]; exists {
		return fmt.Errorf("ruleset %s is already registered", rules.Mode)
	}

	r.rulesets[rules.Mode] = rules
	return nil
}

// Get returns the ruleset for mode, or an INVALID_MODE error
func (r *Registry) Get(mode entities.Mode) (*Ruleset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules, exists := r.rulesets[mode]
	if !exists {
		return nil, types.NewGameError(types.ErrInvalidMode, fmt.Sprintf("Unknown game mode %q", mode))
	}

	return rules, nil
}

// Modes returns the registered modes in name order
func (r *Registry) Modes() []entities.Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]entities.Mode, 0, len(r.rulesets))
	for mode := range r.rulesets {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
