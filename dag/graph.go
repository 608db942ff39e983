package dag

import (
	"slices"

	"github.com/kbukum/mbedjs/errors"
)

// Graph declares tasks and edges (dependency relationships).
type Graph struct {
	Nodes map[string]Task
	Edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// NewGraph builds a graph from tasks, adding one edge per prerequisite.
func NewGraph(tasks ...Task) *Graph {
	g := &Graph{Nodes: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		g.Nodes[t.Name] = t
		for _, p := range t.Prerequisites {
			g.Edges = append(g.Edges, Edge{From: p, To: t.Name})
		}
	}
	return g
}

// BuildLevels uses Kahn's algorithm to group tasks by dependency level.
// Tasks within the same level have no dependency on each other. Levels are
// sorted by name so the result is deterministic.
func BuildLevels(g *Graph) ([][]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)

	for name := range g.Nodes {
		inDegree[name] = 0
	}

	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.From]; !ok {
			return nil, errors.UnknownTask(e.From, e.To)
		}
		if _, ok := g.Nodes[e.To]; !ok {
			return nil, errors.UnknownTask(e.To, e.From)
		}
		inDegree[e.To]++
		dependents[e.From] = append(dependents[e.From], e.To)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		slices.Sort(queue)
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.Nodes) {
		var stuck []string
		for name, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		slices.Sort(stuck)
		return nil, errors.CycleDetected(stuck)
	}

	return levels, nil
}

// TopoSort flattens BuildLevels into a single execution order.
func TopoSort(g *Graph) ([]string, error) {
	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(g.Nodes))
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}
