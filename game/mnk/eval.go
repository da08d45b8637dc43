package mnk

import "uct/game"

// EvaluateOpenLines counts the k-long lines each player can still complete
// (lines holding at least one of their marks and none of the opponent's)
// and scores them relative to each other from the perspective of the player
// to move.
func EvaluateOpenLines(s game.State) float64 {
	g, ok := s.(*MNK)
	if !ok {
		panic("unexpected state type")
	}
	current := g.Turn()
	open := g.openLines()
	return game.Normalize(open[current], open[current.Opponent()])
}

func (g *MNK) openLines() map[game.Player]float64 {
	open := make(map[game.Player]float64, 2)
	for row := 0; row < g.m; row++ {
		for col := 0; col < g.n; col++ {
			for _, dir := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}} {
				if owner, ok := g.lineOwner(row, col, dir[0], dir[1]); ok {
					open[owner]++
				}
			}
		}
	}
	return open
}

// lineOwner returns the only player with marks on the k-long line starting
// at (row, col) in direction (dr, dc). It reports false if the line leaves
// the board, is empty, or is blocked by marks of both players.
func (g *MNK) lineOwner(row, col, dr, dc int) (game.Player, bool) {
	endRow, endCol := row+dr*(g.k-1), col+dc*(g.k-1)
	if endRow < 0 || endRow >= g.m || endCol < 0 || endCol >= g.n {
		return game.None, false
	}
	owner := game.None
	for i := 0; i < g.k; i++ {
		mark := g.board[(row+dr*i)*g.n+col+dc*i]
		switch {
		case mark == game.None:
		case owner == game.None:
			owner = mark
		case mark != owner:
			return game.None, false
		}
	}
	return owner, owner != game.None
}
