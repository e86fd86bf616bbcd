package world

import (
	"errors"
	"testing"
)

// corners returns the six vertices of an interior tile in walking order.
func corners(t *testing.T, b *Board, c HexCoord) []VertexCoord {
	t.Helper()
	vs := b.VerticesFromTile(c)
	if len(vs) != 6 {
		t.Fatalf("tile %s has %d vertices", c, len(vs))
	}
	on := make(map[VertexCoord]bool)
	for _, v := range vs {
		on[v.Coord] = true
	}
	ring := []VertexCoord{vs[0].Coord}
	for len(ring) < 6 {
		last := ring[len(ring)-1]
		for _, n := range b.NeighborVertices(last) {
			if on[n] && (len(ring) < 2 || n != ring[len(ring)-2]) {
				ring = append(ring, n)
				break
			}
		}
	}
	return ring
}

func edgeOf(t *testing.T, b *Board, a, c VertexCoord) EdgeCoord {
	t.Helper()
	e := b.EdgeBetween(a, c)
	if e == nil {
		t.Fatalf("no edge between %s and %s", a, c)
	}
	return e.Coord
}

func TestBuildRoad(t *testing.T) {
	b := mustBoard(t, 3, 1)
	ring := corners(t, b, HexCoord{})
	ec := edgeOf(t, b, ring[0], ring[1])

	if err := b.BuildRoad(ec, 1); err != nil {
		t.Fatal(err)
	}
	err := b.BuildRoad(ec, 2)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("got %v, want *BuildError", err)
	}
	if !errors.Is(err, ErrBuildRejected) || be.Owner != 1 || be.Player != 2 || be.Coord != ec {
		t.Errorf("unexpected build error %+v", be)
	}
	if err := b.BuildRoad(EdgeCoord{Q: 50}, 1); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("unknown edge: got %v", err)
	}
	if err := b.BuildRoad(edgeOf(t, b, ring[1], ring[2]), NoPlayer); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("no player: got %v", err)
	}
}

func TestBuildSettlementAndCity(t *testing.T) {
	b := mustBoard(t, 3, 2)
	vc := corners(t, b, HexCoord{})[0]

	if err := b.UpgradeToCity(vc, 1); !errors.Is(err, ErrBuildRejected) {
		t.Errorf("city without settlement: got %v", err)
	}
	if err := b.BuildSettlement(vc, 1); err != nil {
		t.Fatal(err)
	}

	var be *BuildError
	if err := b.BuildSettlement(vc, 2); !errors.As(err, &be) || be.Owner != 1 {
		t.Errorf("settlement on owned vertex: got %v", err)
	}
	if err := b.UpgradeToCity(vc, 2); !errors.As(err, &be) || be.Owner != 1 {
		t.Errorf("city on opponent settlement: got %v", err)
	}
	if err := b.UpgradeToCity(vc, 1); err != nil {
		t.Fatal(err)
	}
	if !b.Vertex(vc).City {
		t.Error("vertex not upgraded")
	}
	if err := b.UpgradeToCity(vc, 1); !errors.As(err, &be) || be.Reason != "already a city" {
		t.Errorf("second upgrade: got %v", err)
	}
}

func TestAvailableSettlementSpots(t *testing.T) {
	b := mustBoard(t, 3, 3)
	all := len(b.AvailableSettlementSpots(1, true))
	if all != len(b.Vertices) {
		t.Fatalf("empty board offers %d spots, want %d", all, len(b.Vertices))
	}

	ring := corners(t, b, HexCoord{})
	if err := b.BuildSettlement(ring[0], 1); err != nil {
		t.Fatal(err)
	}
	blocked := map[VertexCoord]bool{ring[0]: true}
	for _, n := range b.NeighborVertices(ring[0]) {
		blocked[n] = true
	}
	for _, v := range b.AvailableSettlementSpots(2, true) {
		if blocked[v.Coord] {
			t.Errorf("spot %s violates the distance rule", v.Coord)
		}
	}
	if got := len(b.AvailableSettlementSpots(2, true)); got != len(b.Vertices)-len(blocked) {
		t.Errorf("got %d setup spots, want %d", got, len(b.Vertices)-len(blocked))
	}

	if got := b.AvailableSettlementSpots(1, false); len(got) != 0 {
		t.Errorf("without roads player 1 has %d spots", len(got))
	}
	for i := 0; i < 2; i++ {
		if err := b.BuildRoad(edgeOf(t, b, ring[i], ring[i+1]), 1); err != nil {
			t.Fatal(err)
		}
	}
	got := b.AvailableSettlementSpots(1, false)
	if len(got) != 1 || got[0].Coord != ring[2] {
		t.Errorf("after two roads got %v, want only %s", got, ring[2])
	}
}

func TestAvailableRoadSpots(t *testing.T) {
	b := mustBoard(t, 3, 4)
	ring := corners(t, b, HexCoord{})
	if err := b.BuildSettlement(ring[0], 1); err != nil {
		t.Fatal(err)
	}
	spots := b.AvailableRoadSpots(1)
	if len(spots) != len(b.EdgesFromVertex(ring[0])) {
		t.Fatalf("got %d road spots, want %d", len(spots), len(b.EdgesFromVertex(ring[0])))
	}

	if err := b.BuildRoad(edgeOf(t, b, ring[0], ring[1]), 1); err != nil {
		t.Fatal(err)
	}
	// An opponent settlement at the far end stops the road from continuing.
	if err := b.BuildSettlement(ring[1], 2); err != nil {
		t.Fatal(err)
	}
	for _, e := range b.AvailableRoadSpots(1) {
		if e.Ends[0] == ring[1] || e.Ends[1] == ring[1] {
			t.Errorf("road spot %s continues through an opponent settlement", e.Coord)
		}
	}
}

func TestPlayersAndPorts(t *testing.T) {
	b := mustBoard(t, 3, 5)
	ring := corners(t, b, HexCoord{})
	if err := b.BuildSettlement(ring[0], 2); err != nil {
		t.Fatal(err)
	}
	if err := b.BuildSettlement(ring[3], 1); err != nil {
		t.Fatal(err)
	}
	got := b.PlayersOnTile(HexCoord{})
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("PlayersOnTile = %v, want [1 2]", got)
	}
	if len(b.BuildingsOf(1)) != 1 || len(b.BuildingsOf(3)) != 0 {
		t.Error("BuildingsOf miscounts")
	}

	port := b.Ports()[0]
	if err := b.BuildSettlement(port.Coord, 3); err != nil {
		t.Fatal(err)
	}
	ports := b.PortsOf(3)
	if len(ports) != 1 || ports[0] != port.Port {
		t.Errorf("PortsOf(3) = %v", ports)
	}
}
