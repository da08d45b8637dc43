package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher/agent"
)

var _ Runner = &Engine{}

// Engine referees a game between two agents. Each agent keeps its own
// position; the engine checks every move on its own state before telling
// both agents about it.
type Engine struct {
	State    game.State
	Agents   []agent.Agent // Agents[0] plays game.First
	IDs      []int         // Agent IDs for metrics, parallel to Agents
	MaxMoves int
}

func LocalEngine(state game.State, agents []agent.Agent, ids []int) *Engine {
	if len(agents) != 2 {
		panic("need exactly two agents")
	}
	if len(ids) != len(agents) {
		panic("number of agent IDs does not match number of agents")
	}
	return &Engine{
		State:    state,
		Agents:   agents,
		IDs:      ids,
		MaxMoves: MaxMoves,
	}
}

func agentIndex(p game.Player) int {
	if p == game.Second {
		return 1
	}
	return 0
}

// Run executes the entire game loop until the game is over. A game cut off
// at MaxMoves counts as a draw.
func (e *Engine) Run(ctx context.Context) (game.Outcome, metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{
		StartingAgent: e.IDs[agentIndex(e.State.Turn())],
		StartTime:     time.Now(),
	}
	var moveMetrics []metrics.MoveMetric

	log.Debug().Msgf("agent %d is starting", gameMetric.StartingAgent)

	step := 1
	for !e.State.IsTerminal() && step <= e.MaxMoves {
		player := e.State.Turn()

		move, searchMetric, err := e.Agents[agentIndex(player)].FindMove(ctx)
		if err != nil {
			return game.Outcome{}, gameMetric, moveMetrics, errors.WithMessagef(err, "%v failed to find move %d", player, step)
		}
		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       player,
			SearchMetric: searchMetric,
		})

		if err := e.State.Commit(move); err != nil {
			return game.Outcome{}, gameMetric, moveMetrics, errors.WithMessagef(err, "%v played move %d", player, step)
		}
		for i, a := range e.Agents {
			if err := a.Inform(move); err != nil {
				return game.Outcome{}, gameMetric, moveMetrics, errors.WithMessagef(err, "agent %d rejected move %d (%v)", e.IDs[i], step, move)
			}
		}

		log.Trace().Msgf("move %d: %v played %v", step, player, move)
		step++
	}

	outcome := game.Draw()
	if e.State.IsTerminal() {
		outcome = e.State.Outcome()
	} else {
		log.Warn().Msgf("stopped after %d moves (no winner yet)", e.MaxMoves)
	}

	gameMetric.Outcome = outcome
	if !outcome.IsDraw() {
		gameMetric.Winner = e.IDs[agentIndex(outcome.Winner)]
	}
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = step - 1
	return outcome, gameMetric, moveMetrics, nil
}
