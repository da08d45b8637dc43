package experiments

import (
	"math"

	"uct/experiments/metrics"
	"uct/game"
)

const NumGames = 30 // Per match up

const Episodes = 500 // Search cycles per move

// CutoffExperiment pairs a baseline agent using the default rollout cutoff
// against agents with shorter and longer rollouts.
func CutoffExperiment(newGame game.Factory, evaluate game.Evaluate) Experiment {
	baseline := metrics.AgentConfig{ID: 1, Episodes: Episodes, Seed: 1}
	cutoffConfigs := []metrics.AgentConfig{
		{ID: 2, Episodes: Episodes, Seed: 2, Cutoff: 1},
		{ID: 3, Episodes: Episodes, Seed: 3, Cutoff: 3},
		{ID: 4, Episodes: Episodes, Seed: 4, Cutoff: 12},
		{ID: 5, Episodes: Episodes, Seed: 5, Cutoff: math.MaxInt32}, // Full playout
	}
	return pairWithBaseline("cutoff", newGame, evaluate, baseline, cutoffConfigs)
}

// BetaExperiment pairs a baseline agent using the default exploration
// constant against more greedy and more exploring agents.
func BetaExperiment(newGame game.Factory, evaluate game.Evaluate) Experiment {
	baseline := metrics.AgentConfig{ID: 1, Episodes: Episodes, Seed: 1}
	betaConfigs := []metrics.AgentConfig{
		{ID: 2, Episodes: Episodes, Seed: 2, Beta: 0.25},
		{ID: 3, Episodes: Episodes, Seed: 3, Beta: 0.5},
		{ID: 4, Episodes: Episodes, Seed: 4, Beta: 1},
		{ID: 5, Episodes: Episodes, Seed: 5, Beta: 2},
	}
	return pairWithBaseline("beta", newGame, evaluate, baseline, betaConfigs)
}

// StrengthExperiment pairs a baseline agent against agents searching more
// cycles per move.
func StrengthExperiment(newGame game.Factory, evaluate game.Evaluate) Experiment {
	baseline := metrics.AgentConfig{ID: 1, Episodes: 100, Seed: 1}
	strengthConfigs := []metrics.AgentConfig{
		{ID: 2, Episodes: 200, Seed: 2},
		{ID: 3, Episodes: 400, Seed: 3},
		{ID: 4, Episodes: 800, Seed: 4},
		{ID: 5, Episodes: 1600, Seed: 5},
	}
	return pairWithBaseline("strength", newGame, evaluate, baseline, strengthConfigs)
}

func pairWithBaseline(name string, newGame game.Factory, evaluate game.Evaluate, baseline metrics.AgentConfig, configs []metrics.AgentConfig) Experiment {
	matchUps := make([][2]metrics.AgentConfig, 0, len(configs))
	for _, config := range configs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, config})
	}
	return Experiment{
		Name:     name,
		Games:    NumGames,
		NewGame:  newGame,
		Evaluate: evaluate,
		Configs:  append([]metrics.AgentConfig{baseline}, configs...),
		MatchUps: matchUps,
	}
}
