package searcher

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"uct/game"
)

// node is a position in the search tree. Its rewards are kept from the
// perspective of the player who moved into it, so a parent maximizing mean
// reward over its children picks its own best move.
type node struct {
	parent   *node     // nil for the root
	move     game.Move // nil for the root
	player   game.Player
	terminal bool
	outcome  game.Outcome
	untried  []game.Move
	children []*node
	rewards  float64
	visits   int
}

// newNode snapshots the position reached by playing parent's path plus move
// on state, then restores state. A nil parent snapshots the current
// position as a root.
func newNode(state game.State, parent *node, move game.Move) (*node, error) {
	var path []game.Move
	if parent != nil {
		path = append(parent.path(), move)
	}

	checkpoint := state.Checkpoint()
	n, err := snapshot(state, path)
	if revertErr := restore(state, checkpoint); revertErr != nil {
		return nil, revertErr
	}
	if err != nil {
		return nil, err
	}
	n.parent = parent
	n.move = move
	return n, nil
}

func snapshot(state game.State, path []game.Move) (*node, error) {
	if err := game.ApplyPath(state, path); err != nil {
		return nil, errors.Wrapf(ErrContractViolation, "replaying path %v: %v", path, err)
	}

	n := &node{
		player:   state.Turn(),
		terminal: state.IsTerminal(),
	}
	if n.terminal {
		n.outcome = state.Outcome()
		return n, nil
	}

	n.untried = state.LegalMoves()
	if len(n.untried) == 0 {
		return nil, errors.Wrapf(ErrContractViolation, "non-terminal position after %v has no legal moves", path)
	}
	return n, nil
}

// restore reverts state to checkpoint and verifies it got there.
func restore(state game.State, checkpoint game.Checkpoint) error {
	if err := state.RevertTo(checkpoint); err != nil {
		return errors.Wrapf(ErrContractViolation, "reverting to checkpoint %d: %v", checkpoint, err)
	}
	if got := state.Checkpoint(); got != checkpoint {
		return errors.Wrapf(ErrContractViolation, "reverted to checkpoint %d instead of %d", got, checkpoint)
	}
	return nil
}

// path returns the moves leading from the root to n.
func (n *node) path() []game.Move {
	var path []game.Move
	for node := n; node.parent != nil; node = node.parent {
		path = append(path, node.move)
	}
	slices.Reverse(path)
	return path
}

// mover is the player whose move led to n, the owner of its rewards.
func (n *node) mover() game.Player {
	return n.player.Opponent()
}

func (n *node) mean() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.rewards / float64(n.visits)
}

func (n *node) isExpandable() bool {
	return len(n.untried) > 0
}

// child returns the expanded child reached by move, or nil.
func (n *node) child(move game.Move) *node {
	for _, child := range n.children {
		if child.move == move {
			return child
		}
	}
	return nil
}

// isLegal reports whether move is legal at n's position.
func (n *node) isLegal(move game.Move) bool {
	return n.child(move) != nil || slices.Contains(n.untried, move)
}

// bestChild selects the child with the highest UCT score. Unvisited children
// win outright; ties go to the earliest child.
func (n *node) bestChild(beta float64) *node {
	if n.visits == 0 {
		panic("node has children but no visits")
	}

	policy := newUCT(beta, n.visits)
	var best *node
	bestScore := 0.0
	for _, child := range n.children {
		if child.visits == 0 {
			return child
		}
		score := policy.evaluate(child.rewards, child.visits)
		if best == nil || score > bestScore {
			best = child
			bestScore = score
		}
	}
	return best
}

// addChild moves the untried move at index i into a new child node.
func (n *node) addChild(state game.State, i int) (*node, error) {
	move := n.untried[i]
	child, err := newNode(state, n, move)
	if err != nil {
		return nil, err
	}

	last := len(n.untried) - 1
	n.untried[i] = n.untried[last]
	n.untried = n.untried[:last]
	n.children = append(n.children, child)
	return child, nil
}

// backup adds reward, seen from n's perspective, and returns the parent.
func (n *node) backup(reward float64) *node {
	n.visits++
	n.rewards += reward
	return n.parent
}

// mostVisited picks the child with the most visits, breaking ties by mean
// reward and then by expansion order.
func (n *node) mostVisited() *node {
	var best *node
	for _, child := range n.children {
		if best == nil || child.visits > best.visits ||
			(child.visits == best.visits && child.mean() > best.mean()) {
			best = child
		}
	}
	return best
}

// size counts the nodes of the subtree rooted at n.
func (n *node) size() int {
	count := 1
	for _, child := range n.children {
		count += child.size()
	}
	return count
}
