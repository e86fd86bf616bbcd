package world

import (
	"cmp"
	"math"

	"github.com/boljen/go-bitmap"
	"github.com/emirpasic/gods/queues/priorityqueue"
)

// Longest road.
//
// The general longest simple path problem is NP-hard, but after a single
// road is built the answer can grow by at most one. RecheckLongestRoad only
// has to find one path longer than the current record, so the search stops
// the moment it sees one.
//
// A path never revisits a vertex. Dead ends (degree one) are the natural
// start points and are tried first; every other edge orientation follows,
// which covers networks that are closed loops or hang a branch off a loop.

// RecheckLongestRoad reports whether the network containing the newly built
// road ec now holds a path longer than record.
func (b *Board) RecheckLongestRoad(ec EdgeCoord, record int) (bool, error) {
	net, err := b.RoadNetwork(ec)
	if err != nil {
		return false, err
	}
	return net.Exceeds(record), nil
}

// LongestRoad returns the length of p's longest road over all networks.
func (b *Board) LongestRoad(p PlayerID) int {
	best := 0
	for _, net := range b.RoadNetworks(p) {
		best = max(best, net.Longest())
	}
	return best
}

// Exceeds reports whether the network has a path of more than record roads.
func (n *Network) Exceeds(record int) bool {
	return n.search(record) > record
}

// Longest returns the length of the longest path in the network.
func (n *Network) Longest() int {
	return n.search(math.MaxInt)
}

// pathState is a partial path: where it currently ends, how many roads it
// has and which vertices it has passed through.
type pathState struct {
	end     VertexCoord
	length  int
	visited bitmap.Bitmap
}

// longestFirst orders the queue so the longest partial path is expanded next.
func longestFirst(a, b interface{}) int {
	return cmp.Compare(b.(*pathState).length, a.(*pathState).length)
}

// origin is a candidate first road, walked from -> to.
type origin struct {
	from, to VertexCoord
}

// search explores simple paths and returns the longest length found. It
// returns as soon as a path longer than bound exists.
func (n *Network) search(bound int) int {
	if n.Len() == 0 {
		return 0
	}

	verts := n.Vertices()
	index := make(map[VertexCoord]int, len(verts))
	for i, v := range verts {
		index[v] = i
	}

	best := 0
	for _, s := range n.starts() {
		queue := priorityqueue.NewWith(longestFirst)
		first := &pathState{end: s.to, length: 1, visited: bitmap.New(len(verts))}
		first.visited.Set(index[s.from], true)
		first.visited.Set(index[s.to], true)
		queue.Enqueue(first)

		for !queue.Empty() {
			item, _ := queue.Dequeue()
			cur := item.(*pathState)
			if cur.length > best {
				best = cur.length
				if best > bound {
					return best
				}
			}

			for _, ec := range n.Incident(cur.end) {
				next := n.Other(ec, cur.end)
				if cur.visited.Get(index[next]) {
					continue
				}
				visited := bitmap.Bitmap(cur.visited.Data(true))
				visited.Set(index[next], true)
				queue.Enqueue(&pathState{end: next, length: cur.length + 1, visited: visited})
			}
		}

		// Nothing can beat a path through every road.
		if best == n.Len() {
			break
		}
	}
	return best
}

// starts lists every road in both directions, roads leaving a dead end first.
func (n *Network) starts() []origin {
	var boundary, rest []origin
	for _, ec := range n.Edges() {
		a, c := n.Ends(ec)
		for _, s := range []origin{{from: a, to: c}, {from: c, to: a}} {
			if n.Degree(s.from) == 1 {
				boundary = append(boundary, s)
			} else {
				rest = append(rest, s)
			}
		}
	}
	return append(boundary, rest...)
}
