package graph

// visit colors for the cycle-detection DFS.
type visitColor uint8

const (
	colorWhite visitColor = iota // not yet visited
	colorGray                    // on the current DFS path
	colorBlack                   // fully explored, known cycle-free
)

// dfsFrame is one level of the explicit cycle-detection traversal stack.
type dfsFrame struct {
	node *ProjectGraphNode
	next int
}

// detectCycles runs an iterative three-color DFS over every node's outgoing
// references. Graph depth is input-controlled, so the traversal keeps its own
// explicit stack instead of recursing. On finding a back-edge it returns a
// ConfigurationCycleError carrying the full cycle path.
func (g *ProjectGraph) detectCycles() error {
	colors := make(map[string]visitColor, len(g.nodes))

	for _, key := range sortedKeys(g.nodes) {
		if colors[key] != colorWhite {
			continue
		}

		stack := []dfsFrame{{node: g.nodes[key]}}
		colors[key] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next >= len(top.node.references) {
				colors[top.node.metadata.Fingerprint()] = colorBlack
				stack = stack[:len(stack)-1]
				continue
			}

			ref := top.node.references[top.next]
			top.next++

			switch colors[ref.metadata.Fingerprint()] {
			case colorWhite:
				colors[ref.metadata.Fingerprint()] = colorGray
				stack = append(stack, dfsFrame{node: ref})
			case colorGray:
				return &ConfigurationCycleError{Path: cyclePath(stack, ref)}
			}
		}
	}
	return nil
}

// cyclePath reconstructs the cycle from the DFS stack: the segment from the
// revisited node to the top of the stack, closed by the revisited node again.
func cyclePath(stack []dfsFrame, revisited *ProjectGraphNode) []string {
	start := 0
	for i, f := range stack {
		if f.node == revisited {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.node.metadata.String())
	}
	path = append(path, revisited.metadata.String())
	return path
}
