package world

import (
	"fmt"
	"slices"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Network is a connected set of one player's roads: the induced sub-graph of
// the vertex graph over the owned edges.
type Network struct {
	Player PlayerID

	edges    map[EdgeCoord][2]VertexCoord
	incident map[VertexCoord][]EdgeCoord
}

// NewNetwork returns an empty road network for player p.
func NewNetwork(p PlayerID) *Network {
	return &Network{
		Player:   p,
		edges:    make(map[EdgeCoord][2]VertexCoord),
		incident: make(map[VertexCoord][]EdgeCoord),
	}
}

// AddRoad adds the road ec joining a and c. Adding the same key twice is a no-op.
func (n *Network) AddRoad(ec EdgeCoord, a, c VertexCoord) {
	if _, ok := n.edges[ec]; ok {
		return
	}
	n.edges[ec] = [2]VertexCoord{a, c}
	n.incident[a] = append(n.incident[a], ec)
	n.incident[c] = append(n.incident[c], ec)
}

// Has reports whether the road ec belongs to the network.
func (n *Network) Has(ec EdgeCoord) bool {
	_, ok := n.edges[ec]
	return ok
}

// Ends returns the two vertices joined by road ec.
func (n *Network) Ends(ec EdgeCoord) (VertexCoord, VertexCoord) {
	ends := n.edges[ec]
	return ends[0], ends[1]
}

// Other returns the end of road ec opposite to v.
func (n *Network) Other(ec EdgeCoord, v VertexCoord) VertexCoord {
	ends := n.edges[ec]
	if ends[0] == v {
		return ends[1]
	}
	return ends[0]
}

// Degree is the number of the network's roads touching v.
func (n *Network) Degree(v VertexCoord) int {
	return len(n.incident[v])
}

// Incident returns the network's roads touching v.
func (n *Network) Incident(v VertexCoord) []EdgeCoord {
	return n.incident[v]
}

// Edges returns the roads in key order.
func (n *Network) Edges() []EdgeCoord {
	out := keys(n.edges)
	slices.SortFunc(out, compareEdge)
	return out
}

// Vertices returns the vertices touched by the roads, in key order.
func (n *Network) Vertices() []VertexCoord {
	out := keys(n.incident)
	slices.SortFunc(out, compareVertex)
	return out
}

// Boundary returns the dead ends: vertices with exactly one road.
func (n *Network) Boundary() []VertexCoord {
	var out []VertexCoord
	for _, v := range n.Vertices() {
		if n.Degree(v) == 1 {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of roads.
func (n *Network) Len() int {
	return len(n.edges)
}

// RoadNetwork returns the connected component of the owner's roads that
// contains ec. The edge must carry a road.
func (b *Board) RoadNetwork(ec EdgeCoord) (*Network, error) {
	start := b.Edges[ec]
	if start == nil {
		return nil, fmt.Errorf("road network at %s: %w", ec, ErrUnknownEdge)
	}
	if start.Owner == NoPlayer {
		return nil, fmt.Errorf("road network at unowned edge %s: %w", ec, ErrInvalidOperation)
	}

	p := start.Owner
	net := NewNetwork(p)
	seen := map[VertexCoord]bool{start.Ends[0]: true, start.Ends[1]: true}
	queue := linkedlistqueue.New()
	queue.Enqueue(start.Ends[0])
	queue.Enqueue(start.Ends[1])

	for !queue.Empty() {
		item, _ := queue.Dequeue()
		vc := item.(VertexCoord)
		for _, e := range b.EdgesFromVertex(vc) {
			if e.Owner != p {
				continue
			}
			net.AddRoad(e.Coord, e.Ends[0], e.Ends[1])
			next := e.Other(vc)
			if !seen[next] {
				seen[next] = true
				queue.Enqueue(next)
			}
		}
	}
	return net, nil
}

// RoadNetworks returns every connected component of p's roads.
func (b *Board) RoadNetworks(p PlayerID) []*Network {
	var out []*Network
	for _, e := range b.RoadsOf(p) {
		if slices.ContainsFunc(out, func(n *Network) bool { return n.Has(e.Coord) }) {
			continue
		}
		net, err := b.RoadNetwork(e.Coord)
		if err != nil {
			continue
		}
		out = append(out, net)
	}
	return out
}
