package world

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
)

// PlayerID identifies a player. The zero value means "nobody".
type PlayerID int

// NoPlayer marks an unowned vertex or edge.
const NoPlayer PlayerID = 0

// Vertex is a building spot: the corner where three tiles meet.
type Vertex struct {
	Coord VertexCoord `json:"coord"`
	Tiles [3]HexCoord `json:"tiles"`

	// Shore is set when at least one incident tile is water.
	Shore bool `json:"shore,omitempty"`

	Owner PlayerID `json:"owner,omitempty"`
	City  bool     `json:"city,omitempty"`
	Port  *Port    `json:"port,omitempty"`
}

// Edge is a road spot between two adjacent vertices.
type Edge struct {
	Coord EdgeCoord      `json:"coord"`
	Ends  [2]VertexCoord `json:"ends"`
	Tiles [2]HexCoord    `json:"tiles"` // The two tiles this side separates
	Owner PlayerID       `json:"owner,omitempty"`
}

// Other returns the end of the edge that is not v.
func (e *Edge) Other(v VertexCoord) VertexCoord {
	if e.Ends[0] == v {
		return e.Ends[1]
	}
	return e.Ends[0]
}

// coastline reports whether the edge separates a water tile from a land tile.
func (e *Edge) coastline(m *Map) bool {
	return m.Get(e.Tiles[0]).IsWater() != m.Get(e.Tiles[1]).IsWater()
}

// Board holds the tile registry plus the vertex and edge graphs derived from
// it. The structure never changes after construction; only ownership fields,
// ports and the robber are written afterwards.
//
// Board does no locking. Callers sharing it across goroutines must
// serialize access themselves.
type Board struct {
	*Map

	Seed     int64                   `json:"seed"`
	Vertices map[VertexCoord]*Vertex `json:"-"`
	Edges    map[EdgeCoord]*Edge     `json:"-"`

	// adjacency maps each vertex to its neighbors, labeled with the edge
	// between them.
	adjacency map[VertexCoord]map[VertexCoord]EdgeCoord

	robber    HexCoord
	hasRobber bool

	rng *rand.Rand
}

// NewBoard builds the vertex graph and the tile incidence graph from a tile
// registry. rng is kept for later random queries such as RandomLandTile.
func NewBoard(m *Map, rng *rand.Rand) (*Board, error) {
	b := &Board{
		Map:       m,
		Vertices:  make(map[VertexCoord]*Vertex),
		Edges:     make(map[EdgeCoord]*Edge),
		adjacency: make(map[VertexCoord]map[VertexCoord]EdgeCoord),
		rng:       rng,
	}
	for _, t := range m.Tiles {
		t.Vertices = t.Vertices[:0]
		if t.Robber {
			b.robber, b.hasRobber = t.Coord, true
		}
	}

	for _, tc := range m.Coords() {
		for _, n := range m.Neighbors(tc) {
			common := b.commonNeighbors(tc, n.Coord)
			if len(common) != 1 && len(common) != 2 {
				return nil, fmt.Errorf("tiles %s and %s share %d neighbors: %w",
					tc, n.Coord, len(common), ErrMalformedGrid)
			}

			var ends []VertexCoord
			for _, mc := range common {
				ends = append(ends, b.addVertex(tc, n.Coord, mc))
			}
			if len(ends) == 2 {
				b.addEdge(tc, n.Coord, ends[0], ends[1])
			}
		}
	}

	slog.Debug("board graph built", "tiles", m.TileCount(), "vertices", len(b.Vertices), "edges", len(b.Edges))
	return b, nil
}

// commonNeighbors returns the existing tiles adjacent to both a and b.
func (b *Board) commonNeighbors(a, c HexCoord) []HexCoord {
	var out []HexCoord
	for _, n := range a.Neighbors() {
		if b.Get(n) == nil || Distance(n, c) != 1 {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (b *Board) addVertex(t1, t2, t3 HexCoord) VertexCoord {
	key := VertexCoordOf(t1, t2, t3)
	if _, ok := b.Vertices[key]; ok {
		return key
	}

	v := &Vertex{Coord: key, Tiles: [3]HexCoord{t1, t2, t3}}
	slices.SortFunc(v.Tiles[:], compareHex)
	for _, tc := range v.Tiles {
		t := b.Get(tc)
		if t.IsWater() {
			v.Shore = true
		}
		t.Vertices = append(t.Vertices, key)
	}
	b.Vertices[key] = v
	b.adjacency[key] = make(map[VertexCoord]EdgeCoord, 3)
	return key
}

func (b *Board) addEdge(t1, t2 HexCoord, v1, v2 VertexCoord) {
	key := EdgeCoordBetween(t1, t2)
	if _, ok := b.Edges[key]; ok {
		return
	}

	e := &Edge{Coord: key, Ends: [2]VertexCoord{v1, v2}, Tiles: [2]HexCoord{t1, t2}}
	if compareVertex(v1, v2) > 0 {
		e.Ends[0], e.Ends[1] = v2, v1
	}
	if compareHex(t1, t2) > 0 {
		e.Tiles[0], e.Tiles[1] = t2, t1
	}
	b.Edges[key] = e
	b.adjacency[v1][v2] = key
	b.adjacency[v2][v1] = key
}

// Tile returns the tile at (q, r), or nil.
func (b *Board) Tile(q, r int) *Tile {
	return b.Get(HexCoord{Q: q, R: r})
}

// NeighboringTiles returns the existing tiles adjacent to the given tile.
func (b *Board) NeighboringTiles(c HexCoord) []*Tile {
	return b.Neighbors(c)
}

// TilesWithDice returns the tiles producing on the given roll, center outward.
func (b *Board) TilesWithDice(n int) []*Tile {
	var out []*Tile
	for _, c := range b.Coords() {
		if t := b.Get(c); t.Dice == n && n != 0 {
			out = append(out, t)
		}
	}
	return out
}

// DesertTiles returns all desert tiles, center outward.
func (b *Board) DesertTiles() []*Tile {
	return b.tilesWhere(func(t *Tile) bool { return t.Resource == ResourceDesert })
}

// LandTiles returns every non-water tile, center outward.
func (b *Board) LandTiles() []*Tile {
	return b.tilesWhere(func(t *Tile) bool { return !t.IsWater() })
}

func (b *Board) tilesWhere(keep func(*Tile) bool) []*Tile {
	var out []*Tile
	for _, c := range b.Coords() {
		if t := b.Get(c); keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// RandomLandTile picks a land tile uniformly using the board's rand source.
func (b *Board) RandomLandTile() *Tile {
	land := b.LandTiles()
	if len(land) == 0 {
		return nil
	}
	return land[b.rng.Intn(len(land))]
}

// MoveRobber places the robber on a land tile, clearing its previous tile.
func (b *Board) MoveRobber(c HexCoord) error {
	t := b.Get(c)
	if t == nil {
		return fmt.Errorf("move robber to %s: %w", c, ErrUnknownTile)
	}
	if !t.Resource.IsLand() {
		return fmt.Errorf("move robber to water tile %s: %w", c, ErrInvalidOperation)
	}
	if b.hasRobber {
		b.Get(b.robber).Robber = false
	}
	t.Robber = true
	b.robber, b.hasRobber = c, true
	return nil
}

// Robber returns the tile holding the robber, if placed.
func (b *Board) Robber() (HexCoord, bool) {
	return b.robber, b.hasRobber
}

// Vertex returns the vertex with the given key, or nil.
func (b *Board) Vertex(c VertexCoord) *Vertex {
	return b.Vertices[c]
}

// Edge returns the edge with the given key, or nil.
func (b *Board) Edge(c EdgeCoord) *Edge {
	return b.Edges[c]
}

// VerticesFromTile returns the corners of a tile that exist in the graph.
// Interior tiles always have six.
func (b *Board) VerticesFromTile(c HexCoord) []*Vertex {
	t := b.Get(c)
	if t == nil {
		return nil
	}
	out := make([]*Vertex, 0, len(t.Vertices))
	for _, vc := range t.Vertices {
		out = append(out, b.Vertices[vc])
	}
	return out
}

// TilesFromVertex returns the three tiles meeting at a vertex.
func (b *Board) TilesFromVertex(c VertexCoord) []*Tile {
	v := b.Vertices[c]
	if v == nil {
		return nil
	}
	out := make([]*Tile, 0, 3)
	for _, tc := range v.Tiles {
		out = append(out, b.Get(tc))
	}
	return out
}

// VerticesAdjacent reports whether an edge joins a and c.
func (b *Board) VerticesAdjacent(a, c VertexCoord) bool {
	_, ok := b.adjacency[a][c]
	return ok
}

// NeighborVertices returns the vertices one edge away from c, in key order.
func (b *Board) NeighborVertices(c VertexCoord) []VertexCoord {
	out := make([]VertexCoord, 0, 3)
	for n := range b.adjacency[c] {
		out = append(out, n)
	}
	slices.SortFunc(out, compareVertex)
	return out
}

// EdgesFromVertex returns the two or three edges touching a vertex, ordered
// by the key of the far end.
func (b *Board) EdgesFromVertex(c VertexCoord) []*Edge {
	out := make([]*Edge, 0, 3)
	for _, n := range b.NeighborVertices(c) {
		out = append(out, b.Edges[b.adjacency[c][n]])
	}
	return out
}

// EdgeBetween returns the edge joining two vertices, or nil if they are not adjacent.
func (b *Board) EdgeBetween(a, c VertexCoord) *Edge {
	key, ok := b.adjacency[a][c]
	if !ok {
		return nil
	}
	return b.Edges[key]
}

// EdgesFromTile returns the sides of a tile present in the graph.
func (b *Board) EdgesFromTile(c HexCoord) []*Edge {
	out := make([]*Edge, 0, 6)
	for _, ec := range c.BoundaryEdges() {
		if e := b.Edges[ec]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// SortedVertices returns all vertex keys in key order.
func (b *Board) SortedVertices() []VertexCoord {
	out := make([]VertexCoord, 0, len(b.Vertices))
	for c := range b.Vertices {
		out = append(out, c)
	}
	slices.SortFunc(out, compareVertex)
	return out
}

// SortedEdges returns all edge keys in key order.
func (b *Board) SortedEdges() []EdgeCoord {
	out := make([]EdgeCoord, 0, len(b.Edges))
	for c := range b.Edges {
		out = append(out, c)
	}
	slices.SortFunc(out, compareEdge)
	return out
}

func compareHex(a, b HexCoord) int {
	return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
}

func compareVertex(a, b VertexCoord) int {
	return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
}

func compareEdge(a, b EdgeCoord) int {
	return cmp.Or(cmp.Compare(a.Q, b.Q), cmp.Compare(a.R, b.R))
}
