package metrics

import (
	"time"

	"uct/game"
)

type SearchMetric struct {
	Duration       time.Duration
	Cycles         int
	FullPlayouts   int // Rollouts that reached a terminal position
	CutoffPlayouts int // Rollouts stopped at the cutoff and evaluated
	TerminalVisits int // Cycles that selected an already terminal node
	Cutoff         int
	Beta           float64
	RootVisits     int
	IsTreeReset    bool
}

type MoveMetric struct {
	Step   int
	Player game.Player
	SearchMetric
}

type GameMetric struct {
	StartingAgent int // AgentConfig.ID
	Winner        int // AgentConfig.ID, 0 for a draw
	Outcome       game.Outcome
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	TotalMoves    int
}

type Collector interface {
	Start(cutoff int, beta float64)
	SetTreeReset(value bool)
	AddCycle()
	AddFullPlayout()
	AddCutoffPlayout()
	AddTerminalVisit()
	Complete(rootVisits int) SearchMetric
}

type collector struct {
	cutoff         int
	beta           float64
	startTime      time.Time
	cycles         int
	fullPlayouts   int
	cutoffPlayouts int
	terminalVisits int
	isTreeReset    bool
}

func NewCollector() Collector {
	return &collector{isTreeReset: true}
}

func (m *collector) SetTreeReset(value bool) {
	m.isTreeReset = value
}

// Start begins a new decision. Counters restart, the tree reset flag is kept
// from the last SetTreeReset.
func (m *collector) Start(cutoff int, beta float64) {
	m.startTime = time.Now()
	m.cutoff = cutoff
	m.beta = beta
	m.cycles = 0
	m.fullPlayouts = 0
	m.cutoffPlayouts = 0
	m.terminalVisits = 0
}

func (m *collector) AddCycle()         { m.cycles++ }
func (m *collector) AddFullPlayout()   { m.fullPlayouts++ }
func (m *collector) AddCutoffPlayout() { m.cutoffPlayouts++ }
func (m *collector) AddTerminalVisit() { m.terminalVisits++ }

func (m *collector) Complete(rootVisits int) SearchMetric {
	return SearchMetric{
		Duration:       time.Since(m.startTime),
		Cycles:         m.cycles,
		FullPlayouts:   m.fullPlayouts,
		CutoffPlayouts: m.cutoffPlayouts,
		TerminalVisits: m.terminalVisits,
		Cutoff:         m.cutoff,
		Beta:           m.beta,
		RootVisits:     rootVisits,
		IsTreeReset:    m.isTreeReset,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(cutoff int, beta float64)       {}
func (m *dummyCollector) SetTreeReset(value bool)              {}
func (m *dummyCollector) AddCycle()                            {}
func (m *dummyCollector) AddFullPlayout()                      {}
func (m *dummyCollector) AddCutoffPlayout()                    {}
func (m *dummyCollector) AddTerminalVisit()                    {}
func (m *dummyCollector) Complete(rootVisits int) SearchMetric { return SearchMetric{} }
