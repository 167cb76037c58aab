package compaction

import (
	"sort"

	"github.com/mwaldstein/qipu-go/internal/index"
	"github.com/mwaldstein/qipu-go/internal/note"
)

// Suggestion is one candidate compaction cluster, per spec.md §4.8.
type Suggestion struct {
	NoteIDs     []string
	AvgValue    float64
	LinkDensity float64
	TagMass     float64
	Score       float64 // higher means more eligible for compaction
}

// Suggester ranks candidate compaction clusters by reading a store's
// current notes and edges from idx.
type Suggester struct {
	idx *index.Index
}

// NewSuggester builds a Suggester over idx.
func NewSuggester(idx *index.Index) *Suggester {
	return &Suggester{idx: idx}
}

// Suggest returns candidate clusters of un-compacted, mutually-linked
// notes ranked by (a) low aggregate value, (b) high mutual link
// density, (c) shared tag mass — low-value clusters outrank high-value
// ones, per spec.md §4.8.
func (s *Suggester) Suggest() ([]Suggestion, error) {
	notes, err := s.idx.ListNotes(index.ListFilter{})
	if err != nil {
		return nil, err
	}

	excluded := map[string]bool{}
	for _, n := range notes {
		if len(n.Compacts) > 0 {
			excluded[n.ID] = true // a digest is not itself a compaction candidate
		}
		for _, src := range n.Compacts {
			excluded[src] = true // already subsumed
		}
	}

	byID := map[string]*note.Note{}
	adjacency := map[string]map[string]bool{}
	for _, n := range notes {
		if excluded[n.ID] {
			continue
		}
		byID[n.ID] = n
		adjacency[n.ID] = map[string]bool{}
	}
	for id := range byID {
		out, err := s.idx.GetOutboundEdges(id)
		if err != nil {
			return nil, err
		}
		for _, l := range out {
			if _, ok := byID[l.TargetID]; ok {
				adjacency[id][l.TargetID] = true
				adjacency[l.TargetID][id] = true
			}
		}
	}

	clusters := connectedComponents(byID, adjacency)

	out := make([]Suggestion, 0, len(clusters))
	for _, cluster := range clusters {
		out = append(out, scoreCluster(cluster, byID, adjacency))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].NoteIDs[0] < out[j].NoteIDs[0]
	})
	return out, nil
}

// connectedComponents groups candidate notes reachable from one
// another through the filtered adjacency, discarding singletons.
func connectedComponents(byID map[string]*note.Note, adjacency map[string]map[string]bool) [][]string {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := map[string]bool{}
	var clusters [][]string
	for _, id := range ids {
		if visited[id] {
			continue
		}
		var cluster []string
		queue := []string{id}
		visited[id] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			cluster = append(cluster, cur)

			neighbors := make([]string, 0, len(adjacency[cur]))
			for nb := range adjacency[cur] {
				neighbors = append(neighbors, nb)
			}
			sort.Strings(neighbors)
			for _, nb := range neighbors {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		if len(cluster) >= 2 {
			sort.Strings(cluster)
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

func scoreCluster(cluster []string, byID map[string]*note.Note, adjacency map[string]map[string]bool) Suggestion {
	inCluster := make(map[string]bool, len(cluster))
	for _, id := range cluster {
		inCluster[id] = true
	}

	var totalValue float64
	tagCounts := map[string]int{}
	for _, id := range cluster {
		n := byID[id]
		totalValue += float64(n.Value)
		for _, t := range n.Tags {
			tagCounts[t]++
		}
	}
	avgValue := totalValue / float64(len(cluster))

	edgeCount := 0
	for _, id := range cluster {
		for nb := range adjacency[id] {
			if inCluster[nb] {
				edgeCount++
			}
		}
	}
	edgeCount /= 2 // every mutual edge counted from both endpoints
	density := 0.0
	if maxEdges := len(cluster) * (len(cluster) - 1) / 2; maxEdges > 0 {
		density = float64(edgeCount) / float64(maxEdges)
	}

	var sharedMass float64
	for _, count := range tagCounts {
		if count > 1 {
			sharedMass += float64(count)
		}
	}
	sharedMass /= float64(len(cluster))

	lowValue := (100 - avgValue) / 100
	score := lowValue*0.5 + density*0.3 + sharedMass*0.2

	return Suggestion{
		NoteIDs:     cluster,
		AvgValue:    avgValue,
		LinkDensity: density,
		TagMass:     sharedMass,
		Score:       score,
	}
}
