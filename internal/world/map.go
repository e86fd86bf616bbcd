package world

import "fmt"

// Map holds the tile registry: every tile of the board keyed by coordinate.
type Map struct {
	Tiles  map[HexCoord]*Tile `json:"-"`
	Radius int                `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains tiles where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Tiles:  make(map[HexCoord]*Tile, TileCount(radius)),
		Radius: radius,
	}
}

// Get returns the tile at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Tile {
	return m.Tiles[coord]
}

// Set places a tile at its coordinate.
func (m *Map) Set(t *Tile) {
	m.Tiles[t.Coord] = t
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) <= m.Radius
}

// IsPerimeter reports whether the coordinate lies on the outer ring.
func (m *Map) IsPerimeter(coord HexCoord) bool {
	return Distance(coord, HexCoord{}) == m.Radius
}

// Neighbors returns the existing tiles adjacent to coord.
func (m *Map) Neighbors(coord HexCoord) []*Tile {
	out := make([]*Tile, 0, 6)
	for _, n := range coord.Neighbors() {
		if t := m.Tiles[n]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Coords returns every tile coordinate, center first, ring by ring.
func (m *Map) Coords() []HexCoord {
	out := make([]HexCoord, 0, len(m.Tiles))
	for _, c := range Spiral(m.Radius) {
		if _, ok := m.Tiles[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// TileCount returns the total number of tiles in the map.
func (m *Map) TileCount() int {
	return len(m.Tiles)
}

// LandCount returns the number of non-water tiles.
func (m *Map) LandCount() int {
	n := 0
	for _, t := range m.Tiles {
		if !t.IsWater() {
			n++
		}
	}
	return n
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, tiles=%d)", m.Radius, m.TileCount())
}
