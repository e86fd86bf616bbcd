package world

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
)

// Port is a trading post on a shore vertex. Ports come in adjacent pairs
// sharing one resource.
type Port struct {
	Resource Resource `json:"resource"` // ResourceAny for the wildcard
	Ratio    int      `json:"ratio"`    // Give Ratio of Resource for one of anything
	Pair     int      `json:"pair"`     // Index of the pair along the shore
}

// NewPort returns a port with the exchange ratio derived from its resource:
// 2:1 for a specific resource, 3:1 for the wildcard.
func NewPort(res Resource, pair int) *Port {
	ratio := 2
	if res == ResourceAny {
		ratio = 3
	}
	return &Port{Resource: res, Ratio: ratio, Pair: pair}
}

// portKinds is one of each specific resource plus the wildcard.
var portKinds = []Resource{
	ResourceBrick,
	ResourceGrain,
	ResourceLumber,
	ResourceOre,
	ResourceWool,
	ResourceAny,
}

// ShoreCycle returns the shore vertices in walking order around the island.
// Every shore vertex sits on exactly two coastline edges, so the walk is a
// single cycle; anything else means the grid is malformed.
func (b *Board) ShoreCycle() ([]VertexCoord, error) {
	shore := make(map[VertexCoord][]VertexCoord)
	for _, vc := range b.SortedVertices() {
		if !b.Vertices[vc].Shore {
			continue
		}
		var next []VertexCoord
		for _, e := range b.EdgesFromVertex(vc) {
			if e.coastline(b.Map) {
				next = append(next, e.Other(vc))
			}
		}
		if len(next) != 2 {
			return nil, fmt.Errorf("shore vertex %s has %d coastline edges: %w", vc, len(next), ErrMalformedGrid)
		}
		shore[vc] = next
	}
	if len(shore) == 0 {
		return nil, nil
	}

	start := slices.MinFunc(keys(shore), compareVertex)
	cycle := []VertexCoord{start}
	prev, cur := start, shore[start][0]
	for cur != start {
		if len(cycle) > len(shore) {
			break
		}
		cycle = append(cycle, cur)
		next := shore[cur][0]
		if next == prev {
			next = shore[cur][1]
		}
		prev, cur = cur, next
	}
	if len(cycle) != len(shore) {
		return nil, fmt.Errorf("shore walk covered %d of %d vertices: %w", len(cycle), len(shore), ErrMalformedGrid)
	}
	return cycle, nil
}

// ShoreLength is the number of shore vertices of a generated board: the
// perimeter of the land hexagon one ring inside the sea.
func ShoreLength(radius int) int {
	if radius < 1 {
		return 0
	}
	return 6 * (2*radius - 1)
}

// PlacePorts assigns pairs port pairs along the shore cycle. Each pair is two
// consecutive shore vertices; pair starts are spread evenly from a random
// offset, leaving at least one plain vertex between neighboring pairs.
func (b *Board) PlacePorts(pairs int, rng *rand.Rand) error {
	cycle, err := b.ShoreCycle()
	if err != nil {
		return err
	}
	n := len(cycle)
	if pairs <= 0 {
		return nil
	}
	if n < 3*pairs {
		return fmt.Errorf("%d port pairs on a shore of %d vertices: %w", pairs, n, ErrPortLayout)
	}

	bag := make([]Resource, 0, pairs+len(portKinds))
	for len(bag) < pairs {
		bag = append(bag, portKinds...)
	}
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })

	offset := rng.Intn(n)
	for i := 0; i < pairs; i++ {
		at := offset + i*n/pairs
		for _, vc := range []VertexCoord{cycle[at%n], cycle[(at+1)%n]} {
			b.Vertices[vc].Port = NewPort(bag[i], i)
		}
	}

	slog.Debug("ports placed", "pairs", pairs, "shore", n)
	return nil
}

// AssignPort sets a port on a shore vertex. Used when restoring a stored board.
func (b *Board) AssignPort(vc VertexCoord, res Resource, pair int) error {
	v := b.Vertices[vc]
	if v == nil {
		return fmt.Errorf("assign port at %s: %w", vc, ErrUnknownVertex)
	}
	if !v.Shore {
		return fmt.Errorf("assign port at inland vertex %s: %w", vc, ErrInvalidOperation)
	}
	v.Port = NewPort(res, pair)
	return nil
}

// Ports returns every port vertex in key order.
func (b *Board) Ports() []*Vertex {
	var out []*Vertex
	for _, vc := range b.SortedVertices() {
		if v := b.Vertices[vc]; v.Port != nil {
			out = append(out, v)
		}
	}
	return out
}

// PortPairs groups the port vertices by pair index.
func (b *Board) PortPairs() map[int][]*Vertex {
	out := make(map[int][]*Vertex)
	for _, v := range b.Ports() {
		out[v.Port.Pair] = append(out[v.Port.Pair], v)
	}
	return out
}

func keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
