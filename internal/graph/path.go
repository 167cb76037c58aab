package graph

// PathStep is one edge of a reconstructed path, matching spec.md
// §4.7's stable (from,to,type,source,via) record shape.
type PathStep struct {
	From    string
	To      string
	Type    string
	Source  string
	Via     string // set only when Virtual
	Virtual bool
}

// PathResult is the output of BFSFindPath.
type PathResult struct {
	Found bool
	Steps []PathStep
}

type parentRec struct {
	parent string
	cand   candidateEdge
}

// BFSFindPath returns the shortest unweighted path from from to to,
// searching both directions with semantic inversion enabled, or
// {Found: false} if no path exists within maxHops.
func (e *Engine) BFSFindPath(from, to string, maxHops int) (*PathResult, error) {
	if from == to {
		return &PathResult{Found: true}, nil
	}

	visited := map[string]bool{from: true}
	parents := map[string]parentRec{}
	frontier := []string{from}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		reached := false
		for _, id := range frontier {
			cands, err := e.candidatesFrom(id, DirectionBoth, true)
			if err != nil {
				return nil, err
			}
			for _, c := range cands {
				if visited[c.target] {
					continue
				}
				visited[c.target] = true
				parents[c.target] = parentRec{parent: id, cand: c}
				if c.target == to {
					reached = true
				}
				next = append(next, c.target)
			}
		}
		if reached {
			return &PathResult{Found: true, Steps: reconstructPath(parents, from, to)}, nil
		}
		frontier = next
	}
	return &PathResult{Found: false}, nil
}

// reconstructPath walks the parent map from to back to from, emitting
// steps in forward (from -> to) order.
func reconstructPath(parents map[string]parentRec, from, to string) []PathStep {
	var rev []PathStep
	for cur := to; cur != from; {
		pr := parents[cur]
		via := ""
		if pr.cand.virtual {
			via = pr.cand.dbSource
		}
		rev = append(rev, PathStep{
			From: pr.parent, To: cur, Type: pr.cand.typ,
			Source: pr.cand.dbSource, Via: via, Virtual: pr.cand.virtual,
		})
		cur = pr.parent
	}
	steps := make([]PathStep, len(rev))
	for i, s := range rev {
		steps[len(rev)-1-i] = s
	}
	return steps
}
