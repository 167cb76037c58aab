package similarity

// FindBy2HopNeighborhood returns the union of nodes reachable from id
// in 1 or 2 hops, regardless of edge direction, scored by inverse
// distance (1-hop neighbors score 1.0, 2-hop-only neighbors score
// 0.5), per spec.md §4.6.
func (e *Engine) FindBy2HopNeighborhood(id string, limit int) ([]Scored, error) {
	oneHop, err := e.neighbors(id)
	if err != nil {
		return nil, err
	}

	dist := map[string]int{}
	for n := range oneHop {
		dist[n] = 1
	}
	for n := range oneHop {
		twoHop, err := e.neighbors(n)
		if err != nil {
			return nil, err
		}
		for m := range twoHop {
			if m == id {
				continue
			}
			if _, ok := dist[m]; !ok {
				dist[m] = 2
			}
		}
	}
	delete(dist, id)

	out := make([]Scored, 0, len(dist))
	for n, d := range dist {
		out = append(out, Scored{ID: n, Score: 1.0 / float64(d)})
	}
	sortScored(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (e *Engine) neighbors(id string) (map[string]bool, error) {
	out, err := e.idx.GetOutboundEdges(id)
	if err != nil {
		return nil, err
	}
	in, err := e.idx.GetInboundEdges(id)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, l := range out {
		if l.TargetID != id {
			set[l.TargetID] = true
		}
	}
	for _, l := range in {
		if l.SourceID != id {
			set[l.SourceID] = true
		}
	}
	return set, nil
}
