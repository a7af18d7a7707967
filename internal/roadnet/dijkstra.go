package roadnet

import "container/heap"

type distItem struct {
	id   int64
	dist float64
}

type distHeap []distItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ShortestDistances runs Dijkstra from source over the length-weighted graph and
// returns the distance to every reachable intersection. Unreachable intersections
// are absent from the result.
func (g *Graph) ShortestDistances(source int64) map[int64]float64 {
	dist := make(map[int64]float64)
	if _, ok := g.intersections[source]; !ok {
		return dist
	}

	dist[source] = 0
	settled := make(map[int64]bool)
	h := &distHeap{{id: source}}

	for h.Len() > 0 {
		cur := heap.Pop(h).(distItem)
		if settled[cur.id] {
			continue
		}
		settled[cur.id] = true

		for _, e := range g.intersections[cur.id].Edges {
			nd := cur.dist + e.Length
			if d, ok := dist[e.To]; !ok || nd < d {
				dist[e.To] = nd
				heap.Push(h, distItem{id: e.To, dist: nd})
			}
		}
	}
	return dist
}
