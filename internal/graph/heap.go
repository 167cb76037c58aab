package graph

// pqItem is one candidate expansion on Dijkstra's frontier.
type pqItem struct {
	id       string
	weight   float64
	hop      int
	parent   string
	edgeType string
	origType string
	dbSource string
	virtual  bool
	index    int
}

// priorityQueue orders pqItems by ascending weight, tie-broken by
// edgeType then id per spec.md §4.7's "prefer lower link_type name,
// then lower target id".
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].weight != pq[j].weight {
		return pq[i].weight < pq[j].weight
	}
	if pq[i].edgeType != pq[j].edgeType {
		return pq[i].edgeType < pq[j].edgeType
	}
	return pq[i].id < pq[j].id
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
