package graph

import "fmt"

// SortTopologically reorders the node sequence so every node appears after
// the producers of its inputs. The relative order of independent nodes
// follows their current positions.
func (g *Graph) SortTopologically() error {
	// Build output-to-node map, detecting duplicate claims as we go.
	producerIdx := make(map[string]int)
	for i, n := range g.nodes {
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			if prev, dup := producerIdx[out]; dup {
				return &AmbiguousGraphError{
					Tensor: out,
					Nodes:  []string{g.nodes[prev].Name, n.Name},
				}
			}
			producerIdx[out] = i
		}
	}

	visited := make([]bool, len(g.nodes))
	onStack := make([]bool, len(g.nodes))
	result := make([]*Node, 0, len(g.nodes))

	var visit func(i int) error
	visit = func(i int) error {
		if visited[i] {
			return nil
		}
		if onStack[i] {
			return fmt.Errorf("cycle involving node %q", g.nodes[i].Name)
		}
		onStack[i] = true

		// Visit dependencies first.
		for _, input := range g.nodes[i].Inputs {
			if depIdx, ok := producerIdx[input]; ok {
				if err := visit(depIdx); err != nil {
					return err
				}
			}
		}

		onStack[i] = false
		visited[i] = true
		result = append(result, g.nodes[i])
		return nil
	}

	for i := range g.nodes {
		if err := visit(i); err != nil {
			return err
		}
	}

	g.nodes = result
	return nil
}

// Validate checks the structural corruption invariants: no tensor is
// claimed as output by more than one node, and the node sequence is in
// topological order.
func (g *Graph) Validate() error {
	producerIdx := make(map[string]int)
	claimants := make(map[string][]string)
	for i, n := range g.nodes {
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			claimants[out] = append(claimants[out], n.Name)
			producerIdx[out] = i
		}
	}
	for tensor, names := range claimants {
		if len(names) > 1 {
			return &AmbiguousGraphError{Tensor: tensor, Nodes: names}
		}
	}

	for i, n := range g.nodes {
		for _, input := range n.Inputs {
			prodIdx, ok := producerIdx[input]
			if !ok {
				// Graph input, initializer, or dangling edge: not an
				// ordering concern.
				continue
			}
			if prodIdx >= i {
				return fmt.Errorf("%w: node %q (position %d) consumes %q produced at position %d",
					ErrNotTopological, n.Name, i, input, prodIdx)
			}
		}
	}
	return nil
}
