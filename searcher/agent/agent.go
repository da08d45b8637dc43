package agent

import (
	"context"

	"github.com/pkg/errors"

	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
)

type Agent interface {
	// FindMove searches from the agent's position and returns the move to play
	// along with performance metrics (if collected) from the search
	FindMove(ctx context.Context) (game.Move, metrics.SearchMetric, error)
	// Inform plays a move made by either player on the agent's position
	Inform(move game.Move) error
}

// inform commits move on the searcher, starting a decision first if none was
// started yet (the opponent moved first).
func inform(mcts *searcher.MCTS, state game.State, move game.Move) error {
	err := mcts.Commit(move)
	if errors.Is(err, searcher.ErrNotStarted) {
		if err := mcts.StartDecision(state); err != nil {
			return err
		}
		return mcts.Commit(move)
	}
	return err
}
