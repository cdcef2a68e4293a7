// Package graph provides a small, generic state graph for workflows
// whose nodes form a single linear chain. Nodes are named functions
// that mutate a shared state pointer in place; edges declare the fixed
// execution order, ending at the End terminal. The graph is validated
// and flattened once at Compile time, so Invoke is a plain walk with
// no per-run graph bookkeeping.
package graph

import (
	"context"
	"fmt"
)

// End is the terminal marker every chain must reach.
const End = "__end__"

// NodeFunc is a single workflow node. Implementations mutate the state
// in place to accumulate their output and return an error to abort the
// run; the remaining nodes are not executed after a failure.
type NodeFunc[S any] func(ctx context.Context, state *S) error

// StateGraph is a builder for a compiled linear workflow.
type StateGraph[S any] struct {
	nodes map[string]NodeFunc[S]
	edges map[string]string
	entry string
}

// New returns an empty graph builder.
func New[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes: make(map[string]NodeFunc[S]),
		edges: make(map[string]string),
	}
}

// AddNode registers a named node. Re-registering a name overwrites the
// previous function.
func (g *StateGraph[S]) AddNode(name string, fn NodeFunc[S]) *StateGraph[S] {
	g.nodes[name] = fn
	return g
}

// AddEdge declares that `to` runs after `from`. Each node may have at
// most one outgoing edge; the last edge must target End.
func (g *StateGraph[S]) AddEdge(from, to string) *StateGraph[S] {
	g.edges[from] = to
	return g
}

// SetEntryPoint names the node the walk starts from.
func (g *StateGraph[S]) SetEntryPoint(name string) *StateGraph[S] {
	g.entry = name
	return g
}

// Compile validates the graph and flattens it into a Runner. It fails
// when the entry point is missing, an edge references an unknown node,
// a node is unreachable, or the chain loops instead of reaching End.
func (g *StateGraph[S]) Compile() (*Runner[S], error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph: entry point not set")
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("graph: entry point %q is not a node", g.entry)
	}

	var order []string
	visited := make(map[string]bool, len(g.nodes))
	for current := g.entry; current != End; {
		if visited[current] {
			return nil, fmt.Errorf("graph: cycle detected at node %q", current)
		}
		if _, ok := g.nodes[current]; !ok {
			return nil, fmt.Errorf("graph: edge references unknown node %q", current)
		}
		visited[current] = true
		order = append(order, current)

		next, ok := g.edges[current]
		if !ok {
			return nil, fmt.Errorf("graph: node %q has no outgoing edge", current)
		}
		current = next
	}
	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph: %d of %d nodes unreachable from entry point", len(g.nodes)-len(order), len(g.nodes))
	}

	runner := &Runner[S]{order: order, nodes: make(map[string]NodeFunc[S], len(order))}
	for name, fn := range g.nodes {
		runner.nodes[name] = fn
	}
	return runner, nil
}

// Runner executes a compiled chain against one state value at a time.
// It holds no per-run state and is safe for concurrent Invoke calls as
// long as each call gets its own state.
type Runner[S any] struct {
	order []string
	nodes map[string]NodeFunc[S]
}

// Order returns the node names in execution order.
func (r *Runner[S]) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Invoke walks the chain, running each node against the shared state.
// The first node error aborts the walk and is returned annotated with
// the node name; context cancellation is checked between nodes.
func (r *Runner[S]) Invoke(ctx context.Context, state *S) error {
	for _, name := range r.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.nodes[name](ctx, state); err != nil {
			return fmt.Errorf("node %s: %w", name, err)
		}
	}
	return nil
}
