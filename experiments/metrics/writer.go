package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type Writer struct {
	baseDir string
}

// NewWriter creates a directory <root>/<name>/<timestamp> for the results
// of one experiment run.
func NewWriter(root, name string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405.000Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string { return w.baseDir }

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "episodes", "duration", "cutoff", "beta", "seed", "temperature"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Episodes),
			config.Duration.String(),
			strconv.Itoa(config.Cutoff),
			strconv.FormatFloat(config.Beta, 'g', -1, 64),
			strconv.FormatUint(config.Seed, 10),
			strconv.FormatFloat(config.Temperature, 'g', -1, 64),
		})
	}
	return errors.WithMessage(w.write("agent_configs.csv", header, rows), "agent configs")
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	header := []string{"id", "agent1", "agent2", "starting_agent", "winner", "start_time", "end_time", "duration", "total_moves"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			strconv.Itoa(record.Agent1),
			strconv.Itoa(record.Agent2),
			strconv.Itoa(record.StartingAgent),
			strconv.Itoa(record.Winner),
			record.StartTime.Format(time.RFC3339),
			record.EndTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.TotalMoves),
		})
	}
	return errors.WithMessage(w.write("game_records.csv", header, rows), "game records")
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"game", "step", "player", "duration", "cycles", "full_playouts", "cutoff_playouts", "terminal_visits", "root_visits", "is_tree_reset"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Game),
			strconv.Itoa(record.Step),
			record.Player.String(),
			record.Duration.String(),
			strconv.Itoa(record.Cycles),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.CutoffPlayouts),
			strconv.Itoa(record.TerminalVisits),
			strconv.Itoa(record.RootVisits),
			strconv.FormatBool(record.IsTreeReset),
		})
	}
	return errors.WithMessage(w.write("move_records.csv", header, rows), "move records")
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.baseDir, name))
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	if err := writer.WriteAll(rows); err != nil {
		return errors.Wrap(err, "failed to write rows")
	}
	return f.Close()
}
