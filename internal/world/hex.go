// Package world provides the hex board: tiles, the vertex/edge graph built
// from them, port placement and the longest-road search.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "fmt"

// HexCoord represents a tile position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

func (h HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", h.Q, h.R)
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// Add returns the component-wise sum.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

// Scale returns the coordinate multiplied by k.
func (h HexCoord) Scale(k int) HexCoord {
	return HexCoord{Q: h.Q * k, R: h.R * k}
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	// Max of the three absolute differences in cube coordinates.
	return max(dq, dr, ds)
}

// Ring returns the coordinates at exactly the given distance from the origin,
// in walking order around the ring.
func Ring(radius int) []HexCoord {
	if radius == 0 {
		return []HexCoord{{}}
	}
	out := make([]HexCoord, 0, 6*radius)
	// Start radius steps out along direction 4, then walk each side.
	cur := HexNeighborDirections[4].Scale(radius)
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			out = append(out, cur)
			cur = cur.Add(HexNeighborDirections[side])
		}
	}
	return out
}

// Spiral returns every coordinate within radius, center first, then ring by ring.
func Spiral(radius int) []HexCoord {
	out := make([]HexCoord, 0, TileCount(radius))
	for k := 0; k <= radius; k++ {
		out = append(out, Ring(k)...)
	}
	return out
}

// TileCount is 1 + 6·(1+2+...+radius).
func TileCount(radius int) int {
	return 1 + 3*radius*(radius+1)
}

// VertexCoord identifies the point where three tiles meet. It is the sum of
// the three tile coordinates (three times the centroid), which is unique for
// every corner of the grid.
type VertexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// VertexCoordOf returns the key of the corner shared by a, b and c.
func VertexCoordOf(a, b, c HexCoord) VertexCoord {
	return VertexCoord{Q: a.Q + b.Q + c.Q, R: a.R + b.R + c.R}
}

func (v VertexCoord) String() string {
	return fmt.Sprintf("v(%d,%d)", v.Q, v.R)
}

// EdgeCoord identifies the side shared by two adjacent tiles. It is the sum
// of the two tile coordinates (twice the midpoint).
type EdgeCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// EdgeCoordBetween returns the boundary coordinate shared by two adjacent tiles.
func EdgeCoordBetween(a, b HexCoord) EdgeCoord {
	return EdgeCoord{Q: a.Q + b.Q, R: a.R + b.R}
}

// BoundaryEdges returns the six boundary coordinates of a tile. Two adjacent
// tiles share exactly one of them.
func (h HexCoord) BoundaryEdges() [6]EdgeCoord {
	var result [6]EdgeCoord
	for i, n := range h.Neighbors() {
		result[i] = EdgeCoordBetween(h, n)
	}
	return result
}

func (e EdgeCoord) String() string {
	return fmt.Sprintf("e(%d,%d)", e.Q, e.R)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
