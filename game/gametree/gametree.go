// Package gametree is a game.State over an explicitly written game tree.
// Positions alternate between First and Second, starting with First at the
// root. Leaves are terminal unless built with Stuck.
package gametree

import (
	"github.com/pkg/errors"

	"uct/game"
)

var _ game.State = &State{}

// Move labels an edge of the tree.
type Move string

func (m Move) String() string { return string(m) }

// Branch is an edge from a position to the position its move leads to.
type Branch struct {
	Move Move
	Next *Node
}

func B(move string, next *Node) Branch { return Branch{Move: Move(move), Next: next} }

// Node is a position in the tree.
type Node struct {
	Branches []Branch
	Terminal bool
	Outcome  game.Outcome
	// Score is the static evaluation of the position for the player to move.
	Score float64
}

// Inner builds a non-terminal position from its branches, in order.
func Inner(branches ...Branch) *Node { return &Node{Branches: branches} }

// Leaf builds a terminal position.
func Leaf(outcome game.Outcome) *Node { return &Node{Terminal: true, Outcome: outcome} }

// Scored builds a non-terminal position with a static evaluation.
func Scored(score float64, branches ...Branch) *Node {
	return &Node{Branches: branches, Score: score}
}

// Stuck builds a non-terminal position without legal moves. It breaks the
// game.State contract and exists to exercise that failure.
func Stuck() *Node { return &Node{} }

// State walks a tree. The path from the root to the current position is a
// stack; the bottom committed entries are the game record.
type State struct {
	path      []*Node
	moves     []Move
	committed int
}

func New(root *Node) *State {
	return &State{path: []*Node{root}}
}

func (s *State) current() *Node { return s.path[len(s.path)-1] }

// Depth is the number of moves played from the root, committed or not.
func (s *State) Depth() int { return len(s.moves) }

// Moves returns the moves played from the root.
func (s *State) Moves() []Move { return append([]Move(nil), s.moves...) }

func (s *State) Turn() game.Player {
	if len(s.moves)%2 == 0 {
		return game.First
	}
	return game.Second
}

func (s *State) LegalMoves() []game.Move {
	node := s.current()
	if node.Terminal {
		return nil
	}
	moves := make([]game.Move, len(node.Branches))
	for i, branch := range node.Branches {
		moves[i] = branch.Move
	}
	return moves
}

func (s *State) IsTerminal() bool      { return s.current().Terminal }
func (s *State) Outcome() game.Outcome { return s.current().Outcome }

func (s *State) Apply(move game.Move) error {
	node := s.current()
	if !node.Terminal {
		for _, branch := range node.Branches {
			if branch.Move == move {
				s.path = append(s.path, branch.Next)
				s.moves = append(s.moves, branch.Move)
				return nil
			}
		}
	}
	return errors.Wrapf(game.ErrIllegalMove, "%v after %v", move, s.moves)
}

func (s *State) Checkpoint() game.Checkpoint {
	return game.Checkpoint(len(s.moves) - s.committed)
}

func (s *State) RevertTo(checkpoint game.Checkpoint) error {
	if checkpoint < 0 || checkpoint > s.Checkpoint() {
		return errors.Errorf("cannot revert to checkpoint %d from %d", checkpoint, s.Checkpoint())
	}
	depth := s.committed + int(checkpoint)
	s.path = s.path[:depth+1]
	s.moves = s.moves[:depth]
	return nil
}

func (s *State) Commit(move game.Move) error {
	if cp := s.Checkpoint(); cp != 0 {
		return errors.Errorf("cannot commit %v with %d simulated moves outstanding", move, cp)
	}
	if err := s.Apply(move); err != nil {
		return err
	}
	s.committed++
	return nil
}

// Evaluate returns the Score of the current position.
func Evaluate(s game.State) float64 {
	state, ok := s.(*State)
	if !ok {
		panic("unexpected state type")
	}
	return state.current().Score
}
