// Package graph implements typed-link traversal over internal/index's
// adjacency: breadth-first spanning trees, shortest unweighted paths,
// and Dijkstra weighted traversal with semantic inversion of inverse
// link types, per spec.md §4.7. Grounded on the original
// implementation's graph/traversal.rs GraphProvider shape and
// bfs/path.rs's PredecessorInfo/reconstruct_path.
package graph

import (
	"sort"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/ontology"
)

// Direction selects which edge direction a traversal follows, sharing
// internal/index's vocabulary so callers don't juggle two enums.
type Direction = index.Direction

const (
	DirectionOut  = index.DirectionOut
	DirectionIn   = index.DirectionIn
	DirectionBoth = index.DirectionBoth
)

// Engine is the graph traversal entry point, backed by internal/index
// for adjacency and internal/ontology for inverse/cost lookups.
type Engine struct {
	idx *index.Index
	ont *ontology.Ontology
}

// New builds a graph Engine over idx using ont for inversion/cost.
func New(idx *index.Index, ont *ontology.Ontology) *Engine {
	return &Engine{idx: idx, ont: ont}
}

// Node is one node discovered by a traversal, with Via carrying the
// original outbound-source id of the edge it was reached through
// (itself when the edge needed no inversion to reach it).
type Node struct {
	ID    string
	Depth int
	Via   string
}

// TreeEdge is one spanning-tree edge in a traversal result. From/To are
// the edge's endpoints in traversal order; Source is the edge's
// original (DB) source_id regardless of presentation direction; Via is
// set to Source only when Virtual, per spec.md §4.7's P4 semantics.
type TreeEdge struct {
	From    string
	To      string
	Type    string
	Source  string
	Via     string
	Virtual bool
}

// TreeResult is the output of BFSTraverse/DijkstraTraverse.
type TreeResult struct {
	Nodes []Node
	Edges []TreeEdge
}

// candidateEdge is one edge available for expansion from a node,
// already oriented and typed the way it should present in the result.
type candidateEdge struct {
	target   string
	typ      string // presented type (possibly inverted or "<-"-prefixed)
	origType string // type as registered on the underlying edge row
	dbSource string // the edge row's actual source_id
	virtual  bool
}

// candidatesFrom returns the edges to expand from id in dir, sorted by
// (type, target) per spec.md S4. When dir includes "in" and invert is
// true, each inbound edge Y--t-->id is surfaced as id--inverse(t)-->Y
// (virtual) when t has a registered inverse, falling back to the raw
// "<-t" presentation otherwise, per spec.md §4.2/§4.7.
func (e *Engine) candidatesFrom(id string, dir Direction, invert bool) ([]candidateEdge, error) {
	var out []candidateEdge

	if dir == DirectionOut || dir == DirectionBoth {
		edges, err := e.idx.GetOutboundEdges(id)
		if err != nil {
			return nil, err
		}
		for _, l := range edges {
			out = append(out, candidateEdge{
				target: l.TargetID, typ: l.LinkType, origType: l.LinkType,
				dbSource: l.SourceID,
			})
		}
	}

	if dir == DirectionIn || dir == DirectionBoth {
		edges, err := e.idx.GetInboundEdges(id)
		if err != nil {
			return nil, err
		}
		for _, l := range edges {
			if invert {
				if inv := e.ont.InverseOf(l.LinkType); inv != "" {
					out = append(out, candidateEdge{
						target: l.SourceID, typ: inv, origType: l.LinkType,
						dbSource: l.SourceID, virtual: true,
					})
					continue
				}
			}
			out = append(out, candidateEdge{
				target: l.SourceID, typ: "<-" + l.LinkType, origType: l.LinkType,
				dbSource: l.SourceID,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].typ != out[j].typ {
			return out[i].typ < out[j].typ
		}
		return out[i].target < out[j].target
	})
	return out, nil
}

// BFSTraverse returns the breadth-first spanning tree rooted at start.
// Edges are expanded in sorted (link_type, target_id) order at every
// level, and a node already expanded is never re-expanded (cycles are
// broken by the visited set), per spec.md §4.7/S4.
func (e *Engine) BFSTraverse(start string, dir Direction, maxHops, maxNodes int, invert bool) (*TreeResult, error) {
	visited := map[string]bool{start: true}
	result := &TreeResult{Nodes: []Node{{ID: start}}}

	type frontierNode struct {
		id    string
		depth int
	}
	frontier := []frontierNode{{id: start}}

	for len(frontier) > 0 {
		var next []frontierNode
		for _, fn := range frontier {
			if fn.depth >= maxHops {
				continue
			}
			cands, err := e.candidatesFrom(fn.id, dir, invert)
			if err != nil {
				return nil, err
			}
			for _, c := range cands {
				if visited[c.target] {
					continue
				}
				if maxNodes > 0 && len(result.Nodes) >= maxNodes {
					return result, nil
				}
				visited[c.target] = true
				via := ""
				if c.virtual {
					via = c.dbSource
				}
				result.Nodes = append(result.Nodes, Node{ID: c.target, Depth: fn.depth + 1, Via: c.dbSource})
				result.Edges = append(result.Edges, TreeEdge{
					From: fn.id, To: c.target, Type: c.typ,
					Source: c.dbSource, Via: via, Virtual: c.virtual,
				})
				next = append(next, frontierNode{id: c.target, depth: fn.depth + 1})
			}
		}
		frontier = next
	}
	return result, nil
}
