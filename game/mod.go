package game

import "fmt"

// Player identifies one side of a two-player game. None marks "no player",
// e.g. the winner of a drawn game.
type Player int8

const (
	None Player = iota
	First
	Second
)

// Opponent returns the other player. None is its own opponent.
func (p Player) Opponent() Player {
	switch p {
	case First:
		return Second
	case Second:
		return First
	}
	return None
}

func (p Player) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return "none"
}

// Outcome is the result of a finished game. A zero Outcome is a draw.
type Outcome struct {
	Winner Player
}

func Win(p Player) Outcome { return Outcome{Winner: p} }
func Draw() Outcome        { return Outcome{} }

func (o Outcome) IsDraw() bool { return o.Winner == None }

// Reward scores the outcome for player p: 1 for a win, -1 for a loss and 0
// for a draw.
func (o Outcome) Reward(p Player) float64 {
	switch o.Winner {
	case None:
		return 0
	case p:
		return 1
	}
	return -1
}

func (o Outcome) String() string {
	if o.IsDraw() {
		return "draw"
	}
	return fmt.Sprintf("%v wins", o.Winner)
}

// Checkpoint counts the simulated (uncommitted) moves applied to a State.
// Checkpoint 0 is the committed position.
type Checkpoint int

// State is a mutable game position that can play moves tentatively and take
// them back. Simulated moves never touch the committed game record; Commit
// does, and is only legal while no simulated moves are outstanding.
//
// Implementations are not safe for concurrent use.
type State interface {
	// Turn returns the player to move.
	Turn() Player
	// LegalMoves returns the moves playable from the current position. It is
	// empty for terminal positions.
	LegalMoves() []Move
	IsTerminal() bool
	// Outcome is only meaningful when IsTerminal is true.
	Outcome() Outcome

	// Apply plays a simulated move.
	Apply(move Move) error
	Checkpoint() Checkpoint
	// RevertTo undoes simulated moves until Checkpoint() == checkpoint.
	RevertTo(checkpoint Checkpoint) error

	// Commit plays move on the committed game record.
	Commit(move Move) error
}

// Factory creates a fresh game at its starting position.
type Factory func() State
