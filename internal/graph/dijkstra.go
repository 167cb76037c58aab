package graph

import "container/heap"

// DijkstraTraverse returns a weighted spanning tree rooted at start,
// expanding at most maxHops hops from the root. Edge weight is
// cost_of(link_type) * value_factor(target), where
// value_factor(n) = 1 + (100-value(n))/100 so high-value notes are
// "closer"; with ignoreValue the weight is cost_of(link_type) alone.
// Ties are broken by lower link_type name, then lower target id, per
// spec.md §4.7.
func (e *Engine) DijkstraTraverse(start string, dir Direction, maxHops int, ignoreValue, invert bool) (*TreeResult, error) {
	visited := map[string]bool{}
	valueCache := map[string]int{}
	valueOf := func(id string) (int, error) {
		if v, ok := valueCache[id]; ok {
			return v, nil
		}
		n, err := e.idx.GetNote(id)
		if err != nil {
			return 0, err
		}
		valueCache[id] = n.Value
		return n.Value, nil
	}

	result := &TreeResult{Nodes: []Node{{ID: start}}}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{id: start})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		if visited[item.id] {
			continue
		}
		visited[item.id] = true

		if item.id != start {
			via := ""
			if item.virtual {
				via = item.dbSource
			}
			result.Nodes = append(result.Nodes, Node{ID: item.id, Depth: item.hop, Via: item.dbSource})
			result.Edges = append(result.Edges, TreeEdge{
				From: item.parent, To: item.id, Type: item.edgeType,
				Source: item.dbSource, Via: via, Virtual: item.virtual,
			})
		}
		if item.hop >= maxHops {
			continue
		}

		cands, err := e.candidatesFrom(item.id, dir, invert)
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			if visited[c.target] {
				continue
			}
			weight := e.ont.CostOf(c.origType)
			if !ignoreValue {
				v, err := valueOf(c.target)
				if err != nil {
					return nil, err
				}
				weight *= 1 + float64(100-v)/100
			}
			heap.Push(pq, &pqItem{
				id: c.target, weight: item.weight + weight, hop: item.hop + 1,
				parent: item.id, edgeType: c.typ, origType: c.origType,
				dbSource: c.dbSource, virtual: c.virtual,
			})
		}
	}
	return result, nil
}
