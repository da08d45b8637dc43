package metrics

import "time"

// AgentConfig describes one searching agent in an experiment. Zero values
// fall back to the searcher defaults.
type AgentConfig struct {
	ID          int
	Episodes    int
	Duration    time.Duration
	Cutoff      int
	Beta        float64
	Seed        uint64
	Temperature float64 // Training agents only; 0 plays the best move
}

type GameRecord struct {
	ID     int
	Agent1 int // AgentConfig.ID
	Agent2 int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}
