package experiments

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"uct/engine"
	"uct/experiments/metrics"
	"uct/game"
	"uct/searcher"
	"uct/searcher/agent"
)

// Experiment plays Games games for every match up. Agents swap seats every
// other game so each starts half of them.
type Experiment struct {
	Name        string
	Games       int // Per match up
	Parallelism int // Games played at once
	NewGame     game.Factory
	Evaluate    game.Evaluate
	Configs     []metrics.AgentConfig
	MatchUps    [][2]metrics.AgentConfig
	OutDir      string // Results are not written when empty
}

type Results struct {
	Games []metrics.GameRecord
	Moves []metrics.MoveRecord
	Dir   string // Where results were written
}

type job struct {
	id      int
	matchUp int
	game    int
	agents  [2]metrics.AgentConfig
}

func Run(ctx context.Context, exp Experiment) (Results, error) {
	if exp.NewGame == nil {
		return Results{}, errors.New("experiment needs a game factory")
	}

	var jobs []job
	for mi, matchUp := range exp.MatchUps {
		for i := 0; i < exp.Games; i++ {
			jobs = append(jobs, job{id: len(jobs) + 1, matchUp: mi, game: i, agents: matchUp})
		}
	}

	log.Info().Msgf("starting %s experiment: %d games over %d match ups...", exp.Name, len(jobs), len(exp.MatchUps))

	games := make([]metrics.GameRecord, len(jobs))
	moves := make([][]metrics.MoveRecord, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, exp.Parallelism))
	for i, j := range jobs {
		g.Go(func() error {
			record, moveRecords, err := runGame(ctx, exp, j)
			if err != nil {
				return errors.WithMessagef(err, "game %d", j.id)
			}
			log.Info().Msgf("completed match up %d of %d game %d of %d: %v",
				j.matchUp+1, len(exp.MatchUps), j.game+1, exp.Games, record.Outcome)
			games[i] = record
			moves[i] = moveRecords
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Results{}, err
	}

	results := Results{Games: games}
	for _, m := range moves {
		results.Moves = append(results.Moves, m...)
	}
	log.Info().Msgf("completed %s experiment", exp.Name)

	if exp.OutDir == "" {
		return results, nil
	}
	dir, err := write(exp, results)
	if err != nil {
		return results, err
	}
	results.Dir = dir
	return results, nil
}

func write(exp Experiment, results Results) (string, error) {
	writer, err := metrics.NewWriter(exp.OutDir, exp.Name)
	if err != nil {
		return "", errors.WithMessage(err, "failed to create experiment writer")
	}
	if err := writer.WriteAgentConfigs(exp.Configs); err != nil {
		return "", err
	}
	if err := writer.WriteGameRecords(results.Games); err != nil {
		return "", err
	}
	if err := writer.WriteMoveRecords(results.Moves); err != nil {
		return "", err
	}
	log.Info().Msgf("stored results in %s", writer.Dir())
	return writer.Dir(), nil
}

// runGame plays one game of the job's match up. Every agent and the referee
// get their own game state.
func runGame(ctx context.Context, exp Experiment, j job) (metrics.GameRecord, []metrics.MoveRecord, error) {
	seats := j.agents
	if j.game%2 == 1 {
		seats[0], seats[1] = seats[1], seats[0]
	}

	agents := make([]agent.Agent, len(seats))
	ids := make([]int, len(seats))
	for i, config := range seats {
		agents[i] = createAgent(config, exp.NewGame(), exp.Evaluate, uint64(j.id))
		ids[i] = config.ID
	}

	e := engine.LocalEngine(exp.NewGame(), agents, ids)
	_, gameMetric, moveMetrics, err := e.Run(ctx)
	if err != nil {
		return metrics.GameRecord{}, nil, err
	}

	record := metrics.GameRecord{
		ID:         j.id,
		Agent1:     j.agents[0].ID,
		Agent2:     j.agents[1].ID,
		GameMetric: gameMetric,
	}
	moveRecords := make([]metrics.MoveRecord, len(moveMetrics))
	for i, mm := range moveMetrics {
		moveRecords[i] = metrics.MoveRecord{Game: j.id, MoveMetric: mm}
	}
	return record, moveRecords, nil
}

func createAgent(config metrics.AgentConfig, state game.State, evaluate game.Evaluate, salt uint64) agent.Agent {
	mcts := createMCTS(config, evaluate, salt)
	if config.Temperature > 0 {
		return agent.NewTrainingAgent(mcts, state, config.Temperature, config.Seed^salt)
	}
	return agent.NewEvaluationAgent(mcts, state)
}

func createMCTS(config metrics.AgentConfig, evaluate game.Evaluate, salt uint64) *searcher.MCTS {
	options := []searcher.Option{
		searcher.WithSeed(config.Seed + salt),
		searcher.WithEvaluationFn(evaluate),
	}

	if config.Episodes > 0 {
		options = append(options, searcher.WithEpisodes(config.Episodes))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(config.Cutoff))
	}
	if config.Beta > 0 {
		options = append(options, searcher.WithBeta(config.Beta))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...)
}
