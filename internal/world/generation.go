// Board generation: tile layout, resource and dice assignment, then the
// vertex/edge graph and port placement on top of it.
package world

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// GenConfig holds board generation parameters.
type GenConfig struct {
	Radius    int   // Ring radius; the outer ring is water
	Seed      int64 // Recorded with the board; the caller builds the rand source from it
	PortPairs int   // Number of port pairs (0 = 3 × Radius)
}

// DefaultGenConfig returns the classic board: 19 land tiles inside a ring of sea.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius: 3,
	}
}

// LargeGenConfig returns the extended board used for five and six players.
func LargeGenConfig() GenConfig {
	return GenConfig{
		Radius: 4,
	}
}

// PortPairCount returns the configured number of port pairs.
func (cfg GenConfig) PortPairCount() int {
	if cfg.PortPairs > 0 {
		return cfg.PortPairs
	}
	return 3 * cfg.Radius
}

// canonicalDice is the chit frequency table: one 2, two each of 3–6 and
// 8–11, one 12.
var canonicalDice = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

// coldDice and coldWeights are the renormalized distribution used when a 6
// or 8 would touch another 6 or 8. The 4/18 mass of 6 and 8 is spread
// equally over the eight remaining values; weights are out of 36.
var (
	coldDice    = [8]int{2, 3, 4, 5, 9, 10, 11, 12}
	coldWeights = [8]int{3, 5, 5, 5, 5, 5, 5, 3}
)

const coldWeightTotal = 36

// GenerateBoard creates a complete board: tiles, graph and ports.
func GenerateBoard(cfg GenConfig, rng *rand.Rand) (*Board, error) {
	m, err := GenerateTiles(cfg.Radius, rng)
	if err != nil {
		return nil, err
	}

	b, err := NewBoard(m, rng)
	if err != nil {
		return nil, err
	}
	b.Seed = cfg.Seed

	if err := b.PlacePorts(cfg.PortPairCount(), rng); err != nil {
		return nil, err
	}

	// The robber starts on a desert.
	if deserts := b.DesertTiles(); len(deserts) > 0 {
		if err := b.MoveRobber(deserts[rng.Intn(len(deserts))].Coord); err != nil {
			return nil, err
		}
	}

	slog.Debug("board generated",
		"radius", cfg.Radius,
		"tiles", m.TileCount(),
		"vertices", len(b.Vertices),
		"edges", len(b.Edges),
		"ports", len(b.Ports()),
	)
	return b, nil
}

// GenerateTiles lays out 1 + 6·(1+...+radius) tiles and assigns resources
// and dice values. The outer ring is water.
func GenerateTiles(radius int, rng *rand.Rand) (*Map, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("generate tiles with radius %d: %w", radius, ErrInvalidRadius)
	}

	m := NewMap(radius)
	var land []HexCoord
	for _, coord := range Spiral(radius) {
		t := &Tile{Coord: coord, Resource: ResourceWater}
		m.Set(t)
		if !m.IsPerimeter(coord) {
			land = append(land, coord)
		}
	}

	assignLand(m, land, rng)

	slog.Debug("tiles generated", "radius", radius, "tiles", m.TileCount(), "land", len(land))
	return m, nil
}

// assignLand draws resources and dice for the land tiles in spiral order.
func assignLand(m *Map, land []HexCoord, rng *rand.Rand) {
	n := len(land)

	dice := make([]int, 0, (n/len(canonicalDice)+1)*len(canonicalDice))
	for len(dice) < n {
		dice = append(dice, canonicalDice...)
	}
	rng.Shuffle(len(dice), func(i, j int) { dice[i], dice[j] = dice[j], dice[i] })

	resources := make([]Resource, 0, (n/len(ProducingResources)+1)*len(ProducingResources))
	for len(resources) < n {
		resources = append(resources, ProducingResources[:]...)
	}
	rng.Shuffle(len(resources), func(i, j int) { resources[i], resources[j] = resources[j], resources[i] })

	// One desert per ten land tiles, at least one.
	numDeserts := max(1, n/10)
	deserts := make(map[int]bool, numDeserts)
	for _, idx := range rng.Perm(n)[:numDeserts] {
		deserts[idx] = true
	}

	for i, coord := range land {
		t := m.Get(coord)
		if deserts[i] {
			t.Resource = ResourceDesert
			continue
		}

		t.Resource, resources = resources[len(resources)-1], resources[:len(resources)-1]
		value := dice[len(dice)-1]
		dice = dice[:len(dice)-1]

		if isHot(value) && hasHotNeighbor(m, coord) {
			value = drawCold(rng)
		}
		t.Dice = value
	}
}

// isHot reports whether a dice value is one of the two most frequent rolls.
func isHot(value int) bool {
	return value == 6 || value == 8
}

func hasHotNeighbor(m *Map, coord HexCoord) bool {
	for _, n := range m.Neighbors(coord) {
		if isHot(n.Dice) {
			return true
		}
	}
	return false
}

// drawCold samples the renormalized distribution over the non-6/8 values.
func drawCold(rng *rand.Rand) int {
	n := rng.Intn(coldWeightTotal)
	for i, w := range coldWeights {
		if n < w {
			return coldDice[i]
		}
		n -= w
	}
	return coldDice[len(coldDice)-1]
}

// ResourceCounts returns a summary of tile kind distribution.
func ResourceCounts(m *Map) map[Resource]int {
	counts := make(map[Resource]int)
	for _, t := range m.Tiles {
		counts[t.Resource]++
	}
	return counts
}
