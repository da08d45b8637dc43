package mnk

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"uct/game"
)

var _ game.State = &MNK{}

// Cell is a move: the row-major index of the square to mark.
type Cell int

func (c Cell) String() string {
	return fmt.Sprintf("#%d", int(c))
}

// MNK is an m,n,k-game: players alternately mark squares of an m x n board,
// the first to get k in a row (horizontally, vertically or diagonally) wins.
// First always moves first.
type MNK struct {
	board   []game.Player
	m, n, k int

	// history holds every move played, committed moves first.
	history []Cell
	// winners[i] is the winner after history[:i+1] was played.
	winners   []game.Player
	committed int
}

// New creates an empty m x n board with k in a row to win.
func New(m, n, k int) *MNK {
	if m <= 0 || n <= 0 || k <= 0 || (k > m && k > n) {
		panic(fmt.Sprintf("invalid m,n,k-game %d,%d,%d", m, n, k))
	}
	return &MNK{
		board:   make([]game.Player, m*n),
		history: make([]Cell, 0, m*n),
		winners: make([]game.Player, 0, m*n),
		m:       m,
		n:       n,
		k:       k,
	}
}

// TicTacToe creates a 3,3,3-game.
func TicTacToe() *MNK { return New(3, 3, 3) }

// Factory returns a game.Factory for m,n,k-games of the given size.
func Factory(m, n, k int) game.Factory {
	return func() game.State { return New(m, n, k) }
}

func (g *MNK) BoardSize() (int, int) { return g.m, g.n }

// At returns the owner of the square at row i, column j.
func (g *MNK) At(i, j int) game.Player { return g.board[i*g.n+j] }

// CellAt returns the move marking row i, column j.
func (g *MNK) CellAt(i, j int) Cell { return Cell(i*g.n + j) }

func (g *MNK) MoveNumber() int { return len(g.history) }

func (g *MNK) Turn() game.Player {
	if len(g.history)%2 == 0 {
		return game.First
	}
	return game.Second
}

func (g *MNK) winner() game.Player {
	if len(g.winners) == 0 {
		return game.None
	}
	return g.winners[len(g.winners)-1]
}

func (g *MNK) IsTerminal() bool {
	return g.winner() != game.None || len(g.history) == len(g.board)
}

func (g *MNK) Outcome() game.Outcome {
	return game.Outcome{Winner: g.winner()}
}

func (g *MNK) LegalMoves() []game.Move {
	if g.IsTerminal() {
		return nil
	}
	moves := make([]game.Move, 0, len(g.board)-len(g.history))
	for i, owner := range g.board {
		if owner == game.None {
			moves = append(moves, Cell(i))
		}
	}
	return moves
}

func (g *MNK) check(move game.Move) (Cell, error) {
	cell, ok := move.(Cell)
	if !ok {
		return 0, errors.Wrapf(game.ErrIllegalMove, "%T is not an m,n,k move", move)
	}
	if g.IsTerminal() {
		return 0, errors.Wrapf(game.ErrIllegalMove, "%v: game is over", cell)
	}
	if int(cell) < 0 || int(cell) >= len(g.board) {
		return 0, errors.Wrapf(game.ErrIllegalMove, "%v: off the board", cell)
	}
	if g.board[cell] != game.None {
		return 0, errors.Wrapf(game.ErrIllegalMove, "%v: square taken", cell)
	}
	return cell, nil
}

func (g *MNK) Apply(move game.Move) error {
	cell, err := g.check(move)
	if err != nil {
		return err
	}
	player := g.Turn()
	g.board[cell] = player
	g.history = append(g.history, cell)
	winner := g.winner()
	if g.completesLine(cell, player) {
		winner = player
	}
	g.winners = append(g.winners, winner)
	return nil
}

func (g *MNK) Checkpoint() game.Checkpoint {
	return game.Checkpoint(len(g.history) - g.committed)
}

func (g *MNK) RevertTo(checkpoint game.Checkpoint) error {
	if checkpoint < 0 || checkpoint > g.Checkpoint() {
		return errors.Errorf("cannot revert to checkpoint %d from %d", checkpoint, g.Checkpoint())
	}
	for g.Checkpoint() > checkpoint {
		last := len(g.history) - 1
		g.board[g.history[last]] = game.None
		g.history = g.history[:last]
		g.winners = g.winners[:last]
	}
	return nil
}

func (g *MNK) Commit(move game.Move) error {
	if cp := g.Checkpoint(); cp != 0 {
		return errors.Errorf("cannot commit %v with %d simulated moves outstanding", move, cp)
	}
	if err := g.Apply(move); err != nil {
		return err
	}
	g.committed++
	return nil
}

// completesLine reports whether the mark at cell gives player k in a row.
func (g *MNK) completesLine(cell Cell, player game.Player) bool {
	row, col := int(cell)/g.n, int(cell)%g.n
	for _, dir := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}} {
		count := 1 + g.run(row, col, dir[0], dir[1], player) + g.run(row, col, -dir[0], -dir[1], player)
		if count >= g.k {
			return true
		}
	}
	return false
}

// run counts consecutive squares owned by player walking from (row, col)
// in direction (dr, dc), excluding the start square.
func (g *MNK) run(row, col, dr, dc int, player game.Player) int {
	count := 0
	for {
		row, col = row+dr, col+dc
		if row < 0 || row >= g.m || col < 0 || col >= g.n || g.board[row*g.n+col] != player {
			return count
		}
		count++
	}
}

func (g *MNK) String() string {
	var b strings.Builder
	for i, owner := range g.board {
		if i%g.n == 0 {
			b.WriteString("⎢ ")
		}
		switch owner {
		case game.First:
			b.WriteString("X ")
		case game.Second:
			b.WriteString("O ")
		default:
			b.WriteString("· ")
		}
		if (i+1)%g.n == 0 {
			b.WriteString("⎥\n")
		}
	}
	return b.String()
}
