package agent

import (
	"context"

	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
)

type evaluationAgent struct {
	mcts  *searcher.MCTS
	state game.State
}

// NewEvaluationAgent returns a new agent for actual game play during
// evaluation. It owns state and plays the searcher's best move.
func NewEvaluationAgent(mcts *searcher.MCTS, state game.State) Agent {
	return &evaluationAgent{mcts: mcts, state: state}
}

func (a *evaluationAgent) FindMove(ctx context.Context) (game.Move, metrics.SearchMetric, error) {
	if err := a.mcts.StartDecision(a.state); err != nil {
		return nil, metrics.SearchMetric{}, err
	}
	move, err := a.mcts.Decide(ctx)
	return move, a.mcts.Metrics(), err
}

func (a *evaluationAgent) Inform(move game.Move) error {
	return inform(a.mcts, a.state, move)
}
