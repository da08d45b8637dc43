package engine

import (
	"context"

	"uct/experiments/metrics"
	"uct/game"
)

const MaxMoves = 10000

type Runner interface {
	// Run plays a game till it is over or a max number of moves is reached
	Run(ctx context.Context) (game.Outcome, metrics.GameMetric, []metrics.MoveMetric, error)
}
