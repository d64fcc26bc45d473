package graph

import (
	"github.com/vk/graphplan/internal/evaluate"
	"github.com/vk/graphplan/internal/interpret"
)

// edgeKey is the ordered pair of endpoint fingerprints identifying one edge.
type edgeKey struct {
	from string
	to   string
}

// EdgeItem is the retained diagnostic record of what produced an edge.
type EdgeItem struct {
	Item evaluate.Item
	Kind interpret.ReferenceKind
}

// edgeStore keeps at most one edge item per ordered node pair. When several
// sources would produce the same edge, the strongest kind is retained:
// explicit project references beat multitargeting-synthesized edges, which
// beat solution-only edges. Weaker kinds never replace stronger ones, so an
// edge backed by a real reference is never downgraded to a solution edge.
type edgeStore struct {
	edges map[edgeKey]EdgeItem
}

func newEdgeStore() *edgeStore {
	return &edgeStore{edges: make(map[edgeKey]EdgeItem)}
}

// add records an edge between two nodes and wires the adjacency lists the
// first time the pair is seen. It returns true when the pair is new.
func (s *edgeStore) add(from, to *ProjectGraphNode, item evaluate.Item, kind interpret.ReferenceKind) bool {
	key := edgeKey{from: from.metadata.Fingerprint(), to: to.metadata.Fingerprint()}
	existing, seen := s.edges[key]
	if seen {
		// Kinds are ordered strongest-first.
		if kind < existing.Kind {
			s.edges[key] = EdgeItem{Item: item, Kind: kind}
		}
		return false
	}
	s.edges[key] = EdgeItem{Item: item, Kind: kind}
	from.references = append(from.references, to)
	to.referencing = append(to.referencing, from)
	return true
}

// lookup returns the retained edge item for an ordered node pair.
func (s *edgeStore) lookup(from, to *ProjectGraphNode) (EdgeItem, bool) {
	item, ok := s.edges[edgeKey{from: from.metadata.Fingerprint(), to: to.metadata.Fingerprint()}]
	return item, ok
}
