package searcher

import (
	"math"

	"github.com/pkg/errors"
)

// Hyperparameters for UCT

const Beta = math.Sqrt2 // Exploration constant

const DefaultCutoff = 6 // Rollout depth before falling back to evaluation

const Win = 1.0   // Reward for winning outcome
const Loss = -Win // Reward for loss outcome (negate from opponent perspective)

var (
	// ErrContractViolation reports a game.State that broke its contract:
	// a non-terminal position without legal moves, a rejected move on a
	// path the tree already validated, or a revert that did not restore the
	// position.
	ErrContractViolation = errors.New("game state contract violation")
	ErrNoDecision        = errors.New("no decision available")
	ErrGameOver          = errors.New("game is over")
	ErrNotStarted        = errors.New("no decision started")
)

// Phase is the stage of the search cycle the driver is in.
type Phase int

const (
	Idle Phase = iota
	Selecting
	Expanding
	Simulating
	Backpropagating
	Ready
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Expanding:
		return "expanding"
	case Simulating:
		return "simulating"
	case Backpropagating:
		return "backpropagating"
	case Ready:
		return "ready"
	}
	return "unknown"
}
