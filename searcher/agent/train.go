package agent

import (
	"context"
	"math"
	"strings"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
)

type trainingAgent struct {
	mcts        *searcher.MCTS
	state       game.State
	temperature float64
	rand        *rand.Rand
}

// NewTrainingAgent returns a new agent for self-play during training. It
// samples its moves from the root visit counts raised to 1/temperature.
func NewTrainingAgent(mcts *searcher.MCTS, state game.State, temperature float64, seed uint64) Agent {
	return &trainingAgent{
		mcts:        mcts,
		state:       state,
		temperature: temperature,
		rand:        rand.New(rand.NewSource(seed)),
	}
}

func (a *trainingAgent) FindMove(ctx context.Context) (game.Move, metrics.SearchMetric, error) {
	if err := a.mcts.StartDecision(a.state); err != nil {
		return nil, metrics.SearchMetric{}, err
	}
	best, err := a.mcts.Decide(ctx)
	if err != nil || a.temperature <= 0 {
		return best, a.mcts.Metrics(), err
	}
	policy := adjustTemperature(a.mcts.Policy(), a.temperature)
	return sample(policy, a.rand.Float64()), a.mcts.Metrics(), nil
}

func (a *trainingAgent) Inform(move game.Move) error {
	return inform(a.mcts, a.state, move)
}

func adjustTemperature(policy map[game.Move]float64, temperature float64) map[game.Move]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[game.Move]float64, len(policy))
	for move, visit := range policy {
		prob := math.Pow(visit, exponent)
		sum += prob
		adjusted[move] = prob
	}
	// Normalize
	for move := range adjusted {
		adjusted[move] /= sum
	}
	return adjusted
}

// sample picks the move whose cumulative probability first exceeds sampled,
// walking moves in a fixed order so equal seeds give equal picks.
func sample(policy map[game.Move]float64, sampled float64) game.Move {
	moves := make([]game.Move, 0, len(policy))
	for move := range policy {
		moves = append(moves, move)
	}
	slices.SortFunc(moves, func(a, b game.Move) int {
		return strings.Compare(a.String(), b.String())
	})

	cumulative := 0.0
	var lastMove game.Move
	for _, move := range moves {
		lastMove = move
		cumulative += policy[move]
		if sampled < cumulative {
			return move
		}
	}
	return lastMove // Fallback in case of rounding errors
}
