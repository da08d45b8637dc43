package searcher

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"uct/game/gametree"
)

func TestToDot(t *testing.T) {
	t.Run("before StartDecision", func(t *testing.T) {
		_, err := NewMCTS().ToDot(-1)

		require.True(t, errors.Is(err, ErrNotStarted))
	})

	m := NewMCTS(WithSeed(1))
	require.NoError(t, m.StartDecision(gametree.New(twoPly())))
	run(t, m, 20)

	t.Run("renders the whole tree", func(t *testing.T) {
		dot, err := m.ToDot(-1)

		require.NoError(t, err)
		require.True(t, strings.HasPrefix(dot, "digraph"))
		require.Contains(t, dot, "root")
		require.Equal(t, m.Nodes()-1, strings.Count(dot, "->"), "One edge per non-root node")
		require.Contains(t, dot, "filled", "Terminal nodes should be highlighted")
	})

	t.Run("stops at max depth", func(t *testing.T) {
		dot, err := m.ToDot(1)

		require.NoError(t, err)
		require.Equal(t, len(m.root.children), strings.Count(dot, "->"))
		require.NotContains(t, dot, "wins", "Leaves are two plies deep")
	})
}
