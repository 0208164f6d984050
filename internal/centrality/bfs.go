// Package centrality ranks graph nodes by a traversal-based closeness score.
//
// The score is not textbook closeness. TotalDistance sums, for every node
// reachable from the start, the path length along whichever enqueue reached
// the front of the FIFO queue first. That is the breadth-first discovery path,
// which is not necessarily the shortest one.
package centrality

import "github.com/sells-group/geocentral/internal/spatial"

type queueItem struct {
	node     int
	distance float64
}

// TotalDistance walks g breadth-first from start and returns the sum of the
// distances attributed to each node when it is first dequeued. Nodes outside
// the start node's component contribute nothing. An unknown start node
// returns 0.
func TotalDistance(g *spatial.Graph, start int) float64 {
	n := g.NodeCount()
	if start < 0 || start >= n {
		return 0
	}

	visited := make([]bool, n)
	queue := []queueItem{{node: start, distance: 0}}
	var total float64

	for head := 0; head < len(queue); head++ {
		item := queue[head]
		if visited[item.node] {
			continue
		}
		visited[item.node] = true
		total += item.distance

		for _, nb := range g.Neighbors(item.node) {
			if !visited[nb.Node] {
				queue = append(queue, queueItem{node: nb.Node, distance: item.distance + nb.Weight})
			}
		}
	}
	return total
}
