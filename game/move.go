package game

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrIllegalMove = errors.New("illegal move")

// Move is a game action. Moves must be comparable with == so they can be
// matched against tree edges and used as map keys.
type Move interface {
	fmt.Stringer
}

// ApplyPath plays a sequence of simulated moves in order. It stops at the
// first move the state rejects, leaving the moves before it applied.
func ApplyPath(state State, path []Move) error {
	for i, move := range path {
		if err := state.Apply(move); err != nil {
			return errors.WithMessagef(err, "move %d of %d (%v)", i+1, len(path), move)
		}
	}
	return nil
}

// RevertAll undoes every simulated move, back to the committed position.
func RevertAll(state State) error {
	return state.RevertTo(0)
}

// IsLegal reports whether move is playable from the current position.
func IsLegal(state State, move Move) bool {
	for _, legal := range state.LegalMoves() {
		if legal == move {
			return true
		}
	}
	return false
}
