package searcher

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

// ToDot renders the tree as a Graphviz digraph, down to maxDepth plies
// below the root. A negative maxDepth renders the whole tree.
func (m *MCTS) ToDot(maxDepth int) (string, error) {
	if m.root == nil {
		return "", ErrNotStarted
	}

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}

	var count int
	var add func(n *node, depth int) (string, error)
	add = func(n *node, depth int) (string, error) {
		name := fmt.Sprintf("n%d", count)
		count++

		attrs := map[string]string{
			"shape": "box",
			"label": strconv.Quote(label(n)),
		}
		if n.terminal {
			attrs["style"] = "filled"
		}
		if err := g.AddNode("G", name, attrs); err != nil {
			return "", errors.WithStack(err)
		}

		if depth == maxDepth {
			return name, nil
		}
		for _, child := range n.children {
			childName, err := add(child, depth+1)
			if err != nil {
				return "", err
			}
			if err := g.AddEdge(name, childName, true, nil); err != nil {
				return "", errors.WithStack(err)
			}
		}
		return name, nil
	}

	if _, err := add(m.root, 0); err != nil {
		return "", err
	}
	return g.String(), nil
}

func label(n *node) string {
	move := "root"
	if n.move != nil {
		move = n.move.String()
	}
	if n.terminal {
		return fmt.Sprintf("%s\n%v\nN=%d Q=%.3f", move, n.outcome, n.visits, n.mean())
	}
	return fmt.Sprintf("%s\nto move: %v\nN=%d Q=%.3f", move, n.player, n.visits, n.mean())
}
