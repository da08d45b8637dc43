package searcher

import (
	"context"
	"iter"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"uct/experiments/metrics"
	"uct/game"
)

type Option func(mcts *MCTS)

// MCTS searches a single game.State with UCT. The tree is kept across moves:
// Commit turns the subtree of the played move into the next root.
//
// An MCTS owns its game.State between StartDecision and the end of the game.
// The position must only be advanced through Commit. Not safe for concurrent
// use.
type MCTS struct {
	beta     float64
	cutoff   int
	episodes int
	duration time.Duration
	evaluate game.Evaluate
	rand     *rand.Rand
	metrics  metrics.Collector

	state  game.State
	root   *node
	player game.Player // Player the current decision is searched for
	phase  Phase
	cycles int
}

func WithBeta(beta float64) Option {
	return func(m *MCTS) {
		if beta > 0 {
			m.beta = beta
		}
	}
}

// WithCutoff caps rollouts at depth random moves. A depth of 0 evaluates
// newly expanded positions directly.
func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth >= 0 {
			m.cutoff = depth
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.rand = rand.New(rand.NewSource(seed))
	}
}

func WithEpisodes(episodes int) Option {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.metrics = metrics.NewCollector()
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		beta:     Beta,
		cutoff:   DefaultCutoff,
		evaluate: game.Neutral,
		rand:     rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
		metrics:  metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// StartDecision prepares a search for the player to move in state. Passing
// the state of the previous decision keeps the tree built so far; any other
// state starts a new tree.
func (m *MCTS) StartDecision(state game.State) error {
	reused := state == m.state && m.root != nil
	if !reused {
		root, err := newNode(state, nil, nil)
		if err != nil {
			return err
		}
		m.state = state
		m.root = root
		m.metrics.SetTreeReset(true)
	}

	m.player = m.root.player
	m.cycles = 0
	m.phase = Idle
	m.metrics.Start(m.cutoff, m.beta)

	log.Debug().
		Stringer("player", m.player).
		Bool("reused", reused).
		Int("visits", m.root.visits).
		Msg("starting decision")

	if m.root.terminal {
		return ErrGameOver
	}
	return nil
}

// Candidates runs one search cycle per element and yields the best move
// after each. The sequence ends when the caller stops pulling or ctx is done.
// A failed cycle yields its error once, discards the tree and ends the
// sequence.
func (m *MCTS) Candidates(ctx context.Context) iter.Seq2[game.Move, error] {
	return func(yield func(game.Move, error) bool) {
		if m.root == nil {
			yield(nil, ErrNotStarted)
			return
		}
		if m.root.terminal {
			yield(nil, ErrGameOver)
			return
		}

		for ctx.Err() == nil {
			if err := m.cycle(); err != nil {
				log.Error().Err(err).Int("cycle", m.cycles+1).Msg("search cycle failed")
				m.root = nil
				m.phase = Idle
				yield(nil, err)
				return
			}
			move, _ := m.BestMove()
			if !yield(move, nil) {
				return
			}
		}
	}
}

// Decide pulls candidates until the configured episodes or duration run out
// and returns the last one.
func (m *MCTS) Decide(ctx context.Context) (game.Move, error) {
	if m.episodes <= 0 && m.duration <= 0 {
		return nil, errors.WithMessage(ErrNoDecision, "no search budget")
	}
	if m.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.duration)
		defer cancel()
	}

	var best game.Move
	for move, err := range m.Candidates(ctx) {
		if err != nil {
			return nil, err
		}
		best = move
		if m.episodes > 0 && m.cycles >= m.episodes {
			break
		}
	}
	if best == nil {
		return nil, errors.WithMessage(ErrNoDecision, "no search cycle completed")
	}

	log.Debug().
		Stringer("player", m.player).
		Stringer("move", best).
		Int("cycles", m.cycles).
		Msg("decided")
	return best, nil
}

// cycle runs selection, expansion, simulation and backpropagation once.
func (m *MCTS) cycle() error {
	m.phase = Selecting
	leaf := selectNode(m.root, m.beta)

	var reward float64
	if leaf.terminal {
		m.metrics.AddTerminalVisit()
		reward = leaf.outcome.Reward(leaf.mover())
	} else {
		m.phase = Expanding
		child, err := leaf.addChild(m.state, m.rand.Intn(len(leaf.untried)))
		if err != nil {
			return err
		}

		m.phase = Simulating
		score, err := m.rollout(child)
		if err != nil {
			return err
		}
		leaf = child
		reward = score
		if leaf.mover() != m.player {
			reward = -reward
		}
	}

	m.phase = Backpropagating
	backup(leaf, reward)

	m.phase = Ready
	m.cycles++
	m.metrics.AddCycle()
	return nil
}

// selectNode descends from root through the best UCT children to the first
// node that is expandable or has no children.
func selectNode(root *node, beta float64) *node {
	n := root
	for !n.isExpandable() && len(n.children) > 0 {
		n = n.bestChild(beta)
	}
	return n
}

// rollout plays random moves from n's position for up to cutoff plies and
// scores where it stopped for the player being searched for. The state is
// restored before returning.
func (m *MCTS) rollout(n *node) (score float64, err error) {
	checkpoint := m.state.Checkpoint()
	defer func() {
		if revertErr := restore(m.state, checkpoint); revertErr != nil && err == nil {
			err = revertErr
		}
	}()

	path := n.path()
	if applyErr := game.ApplyPath(m.state, path); applyErr != nil {
		return 0, errors.Wrapf(ErrContractViolation, "replaying path %v: %v", path, applyErr)
	}

	// Rollout till game over or for cutoff number of moves
	for depth := 0; depth < m.cutoff && !m.state.IsTerminal(); depth++ {
		moves := m.state.LegalMoves()
		if len(moves) == 0 {
			return 0, errors.Wrapf(ErrContractViolation, "non-terminal position %d moves into rollout has no legal moves", depth)
		}
		move := moves[m.rand.Intn(len(moves))] // Random rollout policy
		if applyErr := m.state.Apply(move); applyErr != nil {
			return 0, errors.Wrapf(ErrContractViolation, "playing legal move %v: %v", move, applyErr)
		}
	}

	if m.state.IsTerminal() { // Game over before cutoff
		m.metrics.AddFullPlayout()
		return m.state.Outcome().Reward(m.player), nil
	}

	// At cutoff, the evaluation is from the perspective of the player to move
	m.metrics.AddCutoffPlayout()
	score = m.evaluate(m.state)
	if m.state.Turn() != m.player {
		score = -score
	}
	return score, nil
}

// backup credits reward to n and the opposite reward to each ancestor in
// turn, up to the root.
func backup(n *node, reward float64) {
	for n != nil {
		n = n.backup(reward)
		reward = -reward
	}
}

// BestMove returns the move of the most visited root child, with mean reward
// breaking ties. It reports false before any child was expanded.
func (m *MCTS) BestMove() (game.Move, bool) {
	if m.root == nil {
		return nil, false
	}
	child := m.root.mostVisited()
	if child == nil {
		return nil, false
	}
	return child.move, true
}

// Policy returns the visit count of every expanded root move.
func (m *MCTS) Policy() map[game.Move]float64 {
	if m.root == nil {
		return nil
	}
	policy := make(map[game.Move]float64, len(m.root.children))
	for _, child := range m.root.children {
		policy[child.move] = float64(child.visits)
	}
	return policy
}

// Commit plays move on the state and makes it the new root, keeping its
// subtree if it was expanded. Illegal moves are rejected without changes.
func (m *MCTS) Commit(move game.Move) error {
	if m.root == nil {
		return ErrNotStarted
	}
	if !m.root.isLegal(move) {
		return errors.Wrapf(game.ErrIllegalMove, "cannot commit %v", move)
	}
	if err := m.state.Commit(move); err != nil {
		return errors.Wrapf(ErrContractViolation, "committing legal move %v: %v", move, err)
	}

	if child := m.root.child(move); child != nil {
		child.parent = nil
		child.move = nil
		m.root = child
		m.metrics.SetTreeReset(false)
	} else {
		root, err := newNode(m.state, nil, nil)
		if err != nil {
			m.root = nil
			return err
		}
		m.root = root
		m.metrics.SetTreeReset(true)
	}
	m.phase = Idle

	log.Debug().
		Stringer("move", move).
		Int("visits", m.root.visits).
		Msg("committed move")
	return nil
}

func (m *MCTS) Phase() Phase { return m.phase }

// Cycles counts the cycles completed since StartDecision.
func (m *MCTS) Cycles() int { return m.cycles }

// Player returns the player the current decision is searched for.
func (m *MCTS) Player() game.Player { return m.player }

// Nodes counts the nodes in the current tree.
func (m *MCTS) Nodes() int {
	if m.root == nil {
		return 0
	}
	return m.root.size()
}

// Metrics reports on the current decision. They are only collected with
// WithMetrics.
func (m *MCTS) Metrics() metrics.SearchMetric {
	visits := 0
	if m.root != nil {
		visits = m.root.visits
	}
	return m.metrics.Complete(visits)
}
