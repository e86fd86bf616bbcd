package world

import (
	"errors"
	"testing"
)

func TestShoreCycle(t *testing.T) {
	for radius := 1; radius <= 5; radius++ {
		m, err := GenerateTiles(radius, seeded(int64(radius)))
		if err != nil {
			t.Fatal(err)
		}
		b, err := NewBoard(m, seeded(1))
		if err != nil {
			t.Fatal(err)
		}
		cycle, err := b.ShoreCycle()
		if err != nil {
			t.Fatal(err)
		}
		if want := ShoreLength(radius); len(cycle) != want {
			t.Errorf("radius %d: shore cycle of %d, want %d", radius, len(cycle), want)
		}
		for i, vc := range cycle {
			next := cycle[(i+1)%len(cycle)]
			if !b.VerticesAdjacent(vc, next) {
				t.Errorf("radius %d: cycle step %s -> %s is not an edge", radius, vc, next)
			}
			if !b.Vertex(vc).Shore {
				t.Errorf("radius %d: %s in cycle is not shore", radius, vc)
			}
		}
	}
}

func TestPortPlacement(t *testing.T) {
	for radius := 2; radius <= 5; radius++ {
		for seed := int64(1); seed <= 20; seed++ {
			b := mustBoard(t, radius, seed)
			pairs := b.PortPairs()
			if len(pairs) != 3*radius {
				t.Fatalf("radius %d seed %d: %d port pairs, want %d", radius, seed, len(pairs), 3*radius)
			}
			for idx, vs := range pairs {
				if len(vs) != 2 {
					t.Fatalf("pair %d has %d ports", idx, len(vs))
				}
				a, c := vs[0], vs[1]
				if !b.VerticesAdjacent(a.Coord, c.Coord) {
					t.Errorf("pair %d ports %s and %s not adjacent", idx, a.Coord, c.Coord)
				}
				if a.Port.Resource != c.Port.Resource {
					t.Errorf("pair %d mixes %s and %s", idx, a.Port.Resource, c.Port.Resource)
				}
				if !a.Shore || !c.Shore {
					t.Errorf("pair %d is inland", idx)
				}
			}
			for _, v := range b.Ports() {
				for _, n := range b.NeighborVertices(v.Coord) {
					np := b.Vertex(n).Port
					if np != nil && np.Pair != v.Port.Pair {
						t.Errorf("radius %d seed %d: port pairs %d and %d touch", radius, seed, v.Port.Pair, np.Pair)
					}
				}
			}
		}
	}
}

func TestPortRatios(t *testing.T) {
	if p := NewPort(ResourceAny, 0); p.Ratio != 3 {
		t.Errorf("wildcard ratio %d, want 3", p.Ratio)
	}
	for _, r := range ProducingResources {
		if p := NewPort(r, 0); p.Ratio != 2 {
			t.Errorf("%s ratio %d, want 2", r, p.Ratio)
		}
	}
}

func TestPortLayoutTooSmall(t *testing.T) {
	_, err := GenerateBoard(GenConfig{Radius: 1}, seeded(1))
	if !errors.Is(err, ErrPortLayout) {
		t.Fatalf("radius 1 with default ports: got %v, want ErrPortLayout", err)
	}

	b, err := GenerateBoard(GenConfig{Radius: 1, PortPairs: 2}, seeded(1))
	if err != nil {
		t.Fatal(err)
	}
	if b.TileCount() != 7 || len(b.Vertices) != 6 || len(b.Ports()) != 4 {
		t.Errorf("radius 1: %d tiles, %d vertices, %d ports", b.TileCount(), len(b.Vertices), len(b.Ports()))
	}
}

func TestAssignPort(t *testing.T) {
	b := mustBoard(t, 3, 11)
	inland := b.VerticesFromTile(HexCoord{})[0].Coord
	if err := b.AssignPort(inland, ResourceOre, 0); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("inland port: got %v", err)
	}
	if err := b.AssignPort(VertexCoord{Q: 99}, ResourceOre, 0); !errors.Is(err, ErrUnknownVertex) {
		t.Errorf("unknown vertex: got %v", err)
	}
}
