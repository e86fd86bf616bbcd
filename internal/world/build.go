package world

import (
	"fmt"
	"slices"
)

// BuildRoad records a road for player p on an unowned edge.
func (b *Board) BuildRoad(ec EdgeCoord, p PlayerID) error {
	e := b.Edges[ec]
	if e == nil {
		return fmt.Errorf("build road at %s: %w", ec, ErrUnknownEdge)
	}
	if p == NoPlayer {
		return fmt.Errorf("build road at %s without a player: %w", ec, ErrInvalidOperation)
	}
	if e.Owner != NoPlayer {
		return &BuildError{Target: "road", Coord: ec, Player: p, Owner: e.Owner, Reason: "edge already has a road"}
	}
	e.Owner = p
	return nil
}

// BuildSettlement records a settlement for player p on an unowned vertex.
func (b *Board) BuildSettlement(vc VertexCoord, p PlayerID) error {
	v := b.Vertices[vc]
	if v == nil {
		return fmt.Errorf("build settlement at %s: %w", vc, ErrUnknownVertex)
	}
	if p == NoPlayer {
		return fmt.Errorf("build settlement at %s without a player: %w", vc, ErrInvalidOperation)
	}
	if v.Owner != NoPlayer {
		return &BuildError{Target: "settlement", Coord: vc, Player: p, Owner: v.Owner, Reason: "vertex already built on"}
	}
	v.Owner = p
	return nil
}

// UpgradeToCity turns player p's settlement into a city.
func (b *Board) UpgradeToCity(vc VertexCoord, p PlayerID) error {
	v := b.Vertices[vc]
	if v == nil {
		return fmt.Errorf("upgrade city at %s: %w", vc, ErrUnknownVertex)
	}
	if p == NoPlayer {
		return fmt.Errorf("upgrade city at %s without a player: %w", vc, ErrInvalidOperation)
	}
	switch {
	case v.Owner != p:
		return &BuildError{Target: "city", Coord: vc, Player: p, Owner: v.Owner, Reason: "no settlement of this player"}
	case v.City:
		return &BuildError{Target: "city", Coord: vc, Player: p, Owner: v.Owner, Reason: "already a city"}
	}
	v.City = true
	return nil
}

// AvailableRoadSpots returns the unowned edges player p may build on: those
// touching one of p's buildings, or continuing one of p's roads through a
// vertex no opponent has built on.
func (b *Board) AvailableRoadSpots(p PlayerID) []*Edge {
	var out []*Edge
	for _, ec := range b.SortedEdges() {
		e := b.Edges[ec]
		if e.Owner != NoPlayer {
			continue
		}
		for _, vc := range e.Ends {
			if b.reachesVertex(vc, p) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// reachesVertex reports whether p can extend a road out of vc.
func (b *Board) reachesVertex(vc VertexCoord, p PlayerID) bool {
	v := b.Vertices[vc]
	if v.Owner == p {
		return true
	}
	if v.Owner != NoPlayer {
		return false
	}
	for _, e := range b.EdgesFromVertex(vc) {
		if e.Owner == p {
			return true
		}
	}
	return false
}

// AvailableSettlementSpots returns the vertices player p may settle. No
// building may stand on a neighboring vertex. Outside the setup phase the
// vertex must also touch one of p's roads.
func (b *Board) AvailableSettlementSpots(p PlayerID, setup bool) []*Vertex {
	var out []*Vertex
	for _, vc := range b.SortedVertices() {
		v := b.Vertices[vc]
		if v.Owner != NoPlayer || b.crowded(vc) {
			continue
		}
		if setup || b.touchesRoad(vc, p) {
			out = append(out, v)
		}
	}
	return out
}

func (b *Board) crowded(vc VertexCoord) bool {
	for _, n := range b.NeighborVertices(vc) {
		if b.Vertices[n].Owner != NoPlayer {
			return true
		}
	}
	return false
}

func (b *Board) touchesRoad(vc VertexCoord, p PlayerID) bool {
	for _, e := range b.EdgesFromVertex(vc) {
		if e.Owner == p {
			return true
		}
	}
	return false
}

// PlayersOnTile returns the players with a building on a corner of the tile.
func (b *Board) PlayersOnTile(c HexCoord) []PlayerID {
	var out []PlayerID
	for _, v := range b.VerticesFromTile(c) {
		if v.Owner != NoPlayer && !slices.Contains(out, v.Owner) {
			out = append(out, v.Owner)
		}
	}
	slices.Sort(out)
	return out
}

// RoadsOf returns the edges owned by p in key order.
func (b *Board) RoadsOf(p PlayerID) []*Edge {
	var out []*Edge
	for _, ec := range b.SortedEdges() {
		if e := b.Edges[ec]; e.Owner == p {
			out = append(out, e)
		}
	}
	return out
}

// BuildingsOf returns the vertices owned by p in key order.
func (b *Board) BuildingsOf(p PlayerID) []*Vertex {
	var out []*Vertex
	for _, vc := range b.SortedVertices() {
		if v := b.Vertices[vc]; v.Owner == p {
			out = append(out, v)
		}
	}
	return out
}

// PortsOf returns the ports p can trade through, one per pair.
func (b *Board) PortsOf(p PlayerID) []*Port {
	var out []*Port
	seen := make(map[int]bool)
	for _, v := range b.BuildingsOf(p) {
		if v.Port == nil || seen[v.Port.Pair] {
			continue
		}
		seen[v.Port.Pair] = true
		out = append(out, v.Port)
	}
	return out
}
