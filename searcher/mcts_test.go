package searcher

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"uct/game"
	"uct/game/gametree"
	"uct/game/mnk"
)

// run pulls n candidates, failing on any error.
func run(t *testing.T, m *MCTS, n int) {
	t.Helper()
	pulled := 0
	for _, err := range m.Candidates(context.Background()) {
		require.NoError(t, err)
		pulled++
		if pulled == n {
			break
		}
	}
	require.Equal(t, n, pulled)
}

// walk visits every node below and including n.
func walk(n *node, fn func(*node)) {
	fn(n)
	for _, child := range n.children {
		walk(child, fn)
	}
}

// phaseRecorder records the driver phase whenever a move is applied.
type phaseRecorder struct {
	*gametree.State
	mcts   *MCTS
	phases []Phase
}

func (p *phaseRecorder) Apply(move game.Move) error {
	p.phases = append(p.phases, p.mcts.Phase())
	return p.State.Apply(move)
}

func TestStartDecision(t *testing.T) {
	t.Run("player to move is searched for", func(t *testing.T) {
		board := mnk.TicTacToe()
		require.NoError(t, board.Commit(mnk.Cell(4)))
		m := NewMCTS(WithSeed(1))

		require.NoError(t, m.StartDecision(board))

		require.Equal(t, game.Second, m.Player())
		require.Equal(t, Idle, m.Phase())
		require.Equal(t, 1, m.Nodes())
	})

	t.Run("terminal position reports game over", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))

		err := m.StartDecision(gametree.New(gametree.Leaf(game.Win(game.First))))

		require.True(t, errors.Is(err, ErrGameOver))
		for move, err := range m.Candidates(context.Background()) {
			require.Nil(t, move)
			require.True(t, errors.Is(err, ErrGameOver), "Candidates should report game over")
		}
	})

	t.Run("broken position reports a contract violation", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))

		err := m.StartDecision(gametree.New(gametree.Stuck()))

		require.True(t, errors.Is(err, ErrContractViolation))
		require.Zero(t, m.Nodes())
	})

	t.Run("same state keeps the tree", func(t *testing.T) {
		board := mnk.TicTacToe()
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(board))
		run(t, m, 20)
		nodes := m.Nodes()

		require.NoError(t, m.StartDecision(board))

		require.Equal(t, nodes, m.Nodes(), "Tree should be reused")
		require.Zero(t, m.Cycles(), "Cycles count per decision")
	})

	t.Run("other state starts a new tree", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(mnk.TicTacToe()))
		run(t, m, 20)

		require.NoError(t, m.StartDecision(mnk.TicTacToe()))

		require.Equal(t, 1, m.Nodes(), "Tree should be discarded")
	})
}

func TestCandidates(t *testing.T) {
	t.Run("before StartDecision", func(t *testing.T) {
		m := NewMCTS()

		for move, err := range m.Candidates(context.Background()) {
			require.Nil(t, move)
			require.True(t, errors.Is(err, ErrNotStarted))
		}
	})

	t.Run("runs one cycle per candidate until the caller stops", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))
		board := mnk.TicTacToe()
		require.NoError(t, m.StartDecision(board))

		run(t, m, 10)

		require.Equal(t, 10, m.Cycles())
		require.Equal(t, 10, m.root.visits)
		require.Equal(t, Ready, m.Phase())
		require.Equal(t, game.Checkpoint(0), board.Checkpoint(), "State should be restored after every cycle")
	})

	t.Run("every candidate is legal", func(t *testing.T) {
		m := NewMCTS(WithSeed(2))
		board := mnk.TicTacToe()
		require.NoError(t, m.StartDecision(board))

		pulled := 0
		for move, err := range m.Candidates(context.Background()) {
			require.NoError(t, err)
			require.True(t, game.IsLegal(board, move), "%v should be legal", move)
			if pulled++; pulled == 30 {
				break
			}
		}
	})

	t.Run("done context yields nothing", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(mnk.TicTacToe()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		for range m.Candidates(ctx) {
			t.Fatal("Should not run a cycle")
		}
		require.Zero(t, m.Cycles())
	})

	t.Run("cycle phases", func(t *testing.T) {
		state := &phaseRecorder{State: gametree.New(twoPly())}
		m := NewMCTS(WithSeed(1))
		state.mcts = m
		require.NoError(t, m.StartDecision(state))
		state.phases = nil

		run(t, m, 1)

		require.Equal(t, Expanding, state.phases[0], "Expansion replays the path first")
		require.Contains(t, state.phases, Simulating)
		require.NotContains(t, state.phases, Selecting, "Selection never touches the state")
		require.Equal(t, Ready, m.Phase())
	})

	t.Run("contract violation during rollout discards the tree", func(t *testing.T) {
		state := gametree.New(gametree.Inner(
			gametree.B("x", gametree.Inner(gametree.B("y", gametree.Stuck()))),
		))
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(state))

		var errs []error
		for _, err := range m.Candidates(context.Background()) {
			errs = append(errs, err)
		}

		require.Len(t, errs, 1, "Error should end the sequence")
		require.True(t, errors.Is(errs[0], ErrContractViolation))
		require.Zero(t, m.Nodes())
		require.Equal(t, Idle, m.Phase())
		require.Equal(t, game.Checkpoint(0), state.Checkpoint(), "State should be restored")

		err := m.Commit(gametree.Move("x"))
		require.True(t, errors.Is(err, ErrNotStarted), "A new decision must be started")
	})

	t.Run("contract violation during expansion discards the tree", func(t *testing.T) {
		state := gametree.New(gametree.Inner(gametree.B("x", gametree.Stuck())))
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(state))

		for _, err := range m.Candidates(context.Background()) {
			require.True(t, errors.Is(err, ErrContractViolation))
		}
		require.Zero(t, m.Nodes())
	})
}

func TestDecide(t *testing.T) {
	t.Run("without a budget", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(mnk.TicTacToe()))

		_, err := m.Decide(context.Background())

		require.True(t, errors.Is(err, ErrNoDecision))
		require.Zero(t, m.Cycles())
	})

	t.Run("episode budget runs exactly that many cycles", func(t *testing.T) {
		m := NewMCTS(WithSeed(1), WithEpisodes(25))
		board := mnk.TicTacToe()
		require.NoError(t, m.StartDecision(board))

		move, err := m.Decide(context.Background())

		require.NoError(t, err)
		require.True(t, game.IsLegal(board, move))
		require.Equal(t, 25, m.Cycles())
		require.Equal(t, 25, m.root.visits)
	})

	t.Run("duration budget", func(t *testing.T) {
		m := NewMCTS(WithSeed(1), WithDuration(20*time.Millisecond))
		board := mnk.TicTacToe()
		require.NoError(t, m.StartDecision(board))

		move, err := m.Decide(context.Background())

		require.NoError(t, err)
		require.True(t, game.IsLegal(board, move))
		require.Positive(t, m.Cycles())
	})

	t.Run("done context", func(t *testing.T) {
		m := NewMCTS(WithSeed(1), WithEpisodes(25))
		require.NoError(t, m.StartDecision(mnk.TicTacToe()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Decide(ctx)

		require.True(t, errors.Is(err, ErrNoDecision))
	})

	t.Run("before StartDecision", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(25))

		_, err := m.Decide(context.Background())

		require.True(t, errors.Is(err, ErrNotStarted))
	})
}

func TestSearchQuality(t *testing.T) {
	t.Run("finds the forced win of a two-ply game", func(t *testing.T) {
		m := NewMCTS(WithSeed(7), WithEpisodes(500))
		require.NoError(t, m.StartDecision(gametree.New(twoPly())))

		move, err := m.Decide(context.Background())

		require.NoError(t, err)
		require.Equal(t, gametree.Move("L"), move)
		policy := m.Policy()
		require.Greater(t, policy[gametree.Move("L")], 4*policy[gametree.Move("R")],
			"Winning move should dominate the visits")
		require.Equal(t, 500, m.root.visits)
	})

	t.Run("completes a line in tic-tac-toe", func(t *testing.T) {
		board := mnk.TicTacToe()
		for _, c := range []int{0, 3, 1, 4} {
			require.NoError(t, board.Commit(mnk.Cell(c)))
		}
		m := NewMCTS(WithSeed(3), WithEpisodes(1000))
		require.NoError(t, m.StartDecision(board))

		move, err := m.Decide(context.Background())

		require.NoError(t, err)
		require.Equal(t, mnk.Cell(2), move)
	})
}

func TestTreeInvariants(t *testing.T) {
	board := mnk.TicTacToe()
	m := NewMCTS(WithSeed(11), WithEvaluationFn(mnk.EvaluateOpenLines), WithCutoff(2))
	require.NoError(t, m.StartDecision(board))
	run(t, m, 300)

	t.Run("root visits equal cycles", func(t *testing.T) {
		require.Equal(t, 300, m.root.visits)
	})

	t.Run("visits are conserved", func(t *testing.T) {
		walk(m.root, func(n *node) {
			sum := 0
			for _, child := range n.children {
				require.LessOrEqual(t, child.visits, n.visits)
				sum += child.visits
			}
			switch {
			case n == m.root:
				require.Equal(t, n.visits, sum)
			case !n.terminal:
				require.Equal(t, n.visits, sum+1, "Expansion visit plus child visits")
			}
		})
	})

	t.Run("rewards are bounded by visits", func(t *testing.T) {
		walk(m.root, func(n *node) {
			require.LessOrEqual(t, n.rewards, float64(n.visits))
			require.GreaterOrEqual(t, n.rewards, -float64(n.visits))
		})
	})

	t.Run("untried and expanded moves partition the legal moves", func(t *testing.T) {
		walk(m.root, func(n *node) {
			require.NoError(t, game.ApplyPath(board, n.path()))
			legal := board.LegalMoves()
			require.NoError(t, game.RevertAll(board))

			known := append([]game.Move(nil), n.untried...)
			for _, child := range n.children {
				known = append(known, child.move)
			}
			require.ElementsMatch(t, legal, known, "at %v", n.path())
		})
	})

	t.Run("players alternate", func(t *testing.T) {
		walk(m.root, func(n *node) {
			for _, child := range n.children {
				require.Equal(t, n.player.Opponent(), child.player)
			}
		})
	})
}

func TestRollout(t *testing.T) {
	t.Run("state is restored for every cutoff", func(t *testing.T) {
		for cutoff := 0; cutoff <= DefaultCutoff; cutoff++ {
			board := mnk.TicTacToe()
			m := NewMCTS(WithSeed(uint64(cutoff)), WithCutoff(cutoff), WithEvaluationFn(mnk.EvaluateOpenLines))
			require.NoError(t, m.StartDecision(board))
			run(t, m, 5)
			before := board.String()

			score, err := m.rollout(m.root.children[0])

			require.NoError(t, err)
			require.Equal(t, before, board.String(), "cutoff %d", cutoff)
			require.Equal(t, game.Checkpoint(0), board.Checkpoint(), "cutoff %d", cutoff)
			require.LessOrEqual(t, score, 1.0)
			require.GreaterOrEqual(t, score, -1.0)
		}
	})

	t.Run("zero cutoff evaluates the expanded position", func(t *testing.T) {
		state := gametree.New(gametree.Scored(0.5,
			gametree.B("a", gametree.Scored(0.25,
				gametree.B("b", gametree.Leaf(game.Draw())),
			)),
		))
		m := NewMCTS(WithSeed(1), WithCutoff(0), WithEvaluationFn(gametree.Evaluate))
		require.NoError(t, m.StartDecision(state))

		run(t, m, 1)

		// 0.25 favors Second, who is to move after First played a.
		child := m.root.child(gametree.Move("a"))
		require.Equal(t, -0.25, child.rewards)
		require.Equal(t, 0.25, m.root.rewards)
	})

	t.Run("terminal rollout scores the outcome", func(t *testing.T) {
		state := gametree.New(gametree.Inner(
			gametree.B("a", gametree.Inner(
				gametree.B("b", gametree.Leaf(game.Win(game.First))),
			)),
		))
		m := NewMCTS(WithSeed(1), WithMetrics())
		require.NoError(t, m.StartDecision(state))

		run(t, m, 1)

		require.Equal(t, 1.0, m.root.child(gametree.Move("a")).rewards)
		metric := m.Metrics()
		require.Equal(t, 1, metric.FullPlayouts)
		require.Zero(t, metric.CutoffPlayouts)
	})
}

func TestCommit(t *testing.T) {
	t.Run("promotes an expanded child with its subtree", func(t *testing.T) {
		board := mnk.TicTacToe()
		m := NewMCTS(WithSeed(5), WithMetrics())
		require.NoError(t, m.StartDecision(board))
		run(t, m, 200)
		move, ok := m.BestMove()
		require.True(t, ok)
		child := m.root.child(move)
		var siblings []*node
		for _, sibling := range m.root.children {
			if sibling != child {
				siblings = append(siblings, sibling)
			}
		}
		size := child.size()

		require.NoError(t, m.Commit(move))

		require.Same(t, child, m.root)
		require.Nil(t, m.root.parent)
		require.Nil(t, m.root.move)
		require.Equal(t, size, m.Nodes())
		walk(m.root, func(n *node) {
			for _, sibling := range siblings {
				require.NotSame(t, sibling, n, "Siblings should be unreachable")
			}
		})
		require.Equal(t, 1, board.MoveNumber())
		require.Equal(t, Idle, m.Phase())
		require.False(t, m.Metrics().IsTreeReset)
	})

	t.Run("unexpanded move builds a fresh root", func(t *testing.T) {
		board := mnk.TicTacToe()
		m := NewMCTS(WithSeed(5))
		require.NoError(t, m.StartDecision(board))

		require.NoError(t, m.Commit(mnk.Cell(4)))

		require.Equal(t, game.Second, m.root.player)
		require.Zero(t, m.root.visits)
		require.Empty(t, m.root.children)
		require.ElementsMatch(t, board.LegalMoves(), m.root.untried)
	})

	t.Run("illegal move is rejected without changes", func(t *testing.T) {
		board := mnk.TicTacToe()
		m := NewMCTS(WithSeed(5))
		require.NoError(t, m.StartDecision(board))
		run(t, m, 10)
		root := m.root

		err := m.Commit(mnk.Cell(42))

		require.True(t, errors.Is(err, game.ErrIllegalMove))
		require.Same(t, root, m.root)
		require.Zero(t, board.MoveNumber())

		require.NoError(t, m.Commit(mnk.Cell(0)))
		err = m.Commit(mnk.Cell(0))
		require.True(t, errors.Is(err, game.ErrIllegalMove), "Square is taken")
		require.Equal(t, 1, board.MoveNumber())
	})

	t.Run("before StartDecision", func(t *testing.T) {
		err := NewMCTS().Commit(mnk.Cell(0))

		require.True(t, errors.Is(err, ErrNotStarted))
	})

	t.Run("tree is reused across both players' moves", func(t *testing.T) {
		board := mnk.TicTacToe()
		m := NewMCTS(WithSeed(9))
		require.NoError(t, m.StartDecision(board))
		run(t, m, 400)
		move, _ := m.BestMove()
		reply := m.root.child(move).mostVisited()
		require.NotNil(t, reply)
		visits := reply.visits

		require.NoError(t, m.Commit(move))
		require.NoError(t, m.Commit(reply.move))
		require.NoError(t, m.StartDecision(board))

		require.Equal(t, game.First, m.Player())
		require.Equal(t, visits, m.root.visits, "Statistics should survive both commits")
	})

	t.Run("committing into a finished game", func(t *testing.T) {
		m := NewMCTS(WithSeed(1))
		require.NoError(t, m.StartDecision(gametree.New(twoPly())))
		require.NoError(t, m.Commit(gametree.Move("L")))
		require.NoError(t, m.Commit(gametree.Move("r")))

		require.True(t, m.root.terminal)
		require.True(t, errors.Is(m.StartDecision(m.state), ErrGameOver))
	})
}
