package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"uct/experiments"
	"uct/experiments/metrics"
	"uct/game"
	"uct/game/mnk"
	"uct/searcher"
)

func main() {
	mode := flag.String("experiment", "match", "One of match, cutoff, beta, strength or dot")
	m := flag.Int("m", 3, "Board rows")
	n := flag.Int("n", 3, "Board columns")
	k := flag.Int("k", 3, "Marks in a row to win")
	games := flag.Int("games", 10, "Games per match up")
	parallel := flag.Int("parallel", 4, "Games played at once")
	episodes1 := flag.Int("episodes1", 500, "Search cycles per move of agent 1")
	episodes2 := flag.Int("episodes2", 500, "Search cycles per move of agent 2")
	duration := flag.Duration("duration", 0, "Search time per move (both agents, in addition to cycles)")
	cutoff := flag.Int("cutoff", searcher.DefaultCutoff, "Rollout depth before evaluation")
	beta := flag.Float64("beta", searcher.Beta, "Exploration constant")
	seed := flag.Uint64("seed", 1, "Random seed")
	out := flag.String("out", "results", "Directory for experiment results")
	depth := flag.Int("depth", 2, "Plies below the root to render in dot mode")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	newGame := mnk.Factory(*m, *n, *k)
	evaluate := mnk.EvaluateOpenLines

	var exp experiments.Experiment
	switch *mode {
	case "dot":
		if err := printTree(ctx, newGame(), evaluate, *episodes1, *cutoff, *beta, *seed, *depth); err != nil {
			log.Fatal().Err(err).Msg("failed to render search tree")
		}
		return
	case "match":
		agent1 := metrics.AgentConfig{ID: 1, Episodes: *episodes1, Duration: *duration, Cutoff: *cutoff, Beta: *beta, Seed: *seed}
		agent2 := metrics.AgentConfig{ID: 2, Episodes: *episodes2, Duration: *duration, Cutoff: *cutoff, Beta: *beta, Seed: *seed + 1}
		exp = experiments.Experiment{
			Name:     "match",
			NewGame:  newGame,
			Evaluate: evaluate,
			Configs:  []metrics.AgentConfig{agent1, agent2},
			MatchUps: [][2]metrics.AgentConfig{{agent1, agent2}},
		}
	case "cutoff":
		exp = experiments.CutoffExperiment(newGame, evaluate)
	case "beta":
		exp = experiments.BetaExperiment(newGame, evaluate)
	case "strength":
		exp = experiments.StrengthExperiment(newGame, evaluate)
	default:
		log.Fatal().Msgf("unknown experiment %q", *mode)
	}

	exp.Games = *games
	exp.Parallelism = *parallel
	exp.OutDir = *out
	results, err := experiments.Run(ctx, exp)
	if err != nil {
		log.Fatal().Err(err).Msgf("%s experiment failed", exp.Name)
	}

	wins := map[int]int{}
	for _, record := range results.Games {
		wins[record.Winner]++
	}
	for _, config := range exp.Configs {
		log.Info().Msgf("agent %d won %d games", config.ID, wins[config.ID])
	}
	log.Info().Msgf("%d games drawn", wins[0])
}

// printTree searches the opening position and writes the tree as DOT to stdout.
func printTree(ctx context.Context, state game.State, evaluate game.Evaluate, episodes, cutoff int, beta float64, seed uint64, depth int) error {
	mcts := searcher.NewMCTS(
		searcher.WithEpisodes(episodes),
		searcher.WithCutoff(cutoff),
		searcher.WithBeta(beta),
		searcher.WithSeed(seed),
		searcher.WithEvaluationFn(evaluate),
	)
	if err := mcts.StartDecision(state); err != nil {
		return err
	}
	if _, err := mcts.Decide(ctx); err != nil {
		return err
	}
	dot, err := mcts.ToDot(depth)
	if err != nil {
		return err
	}
	fmt.Println(dot)
	return nil
}
