package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/talgya/hexboard/internal/entropy"
	"github.com/talgya/hexboard/internal/persistence"
	"github.com/talgya/hexboard/internal/world"
)

const testKey = "test-key"

func newTestServer(t *testing.T, rate int) (*Server, http.Handler) {
	t.Helper()
	cfg := world.DefaultGenConfig()
	cfg.Seed = 17
	b, err := world.GenerateBoard(cfg, entropy.NewRand(cfg.Seed))
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{Board: b, BoardID: persistence.NewBoardID(), AdminKey: testKey, RatePerMinute: rate}
	return s, s.Handler()
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec.Code
}

func post(t *testing.T, h http.Handler, path string, body any, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec.Code
}

// centerRing returns the corners of the center tile in walking order.
func centerRing(t *testing.T, b *world.Board) []world.VertexCoord {
	t.Helper()
	vs := b.VerticesFromTile(world.HexCoord{})
	on := make(map[world.VertexCoord]bool)
	for _, v := range vs {
		on[v.Coord] = true
	}
	ring := []world.VertexCoord{vs[0].Coord}
	for len(ring) < len(vs) {
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

func TestBoardEndpoint(t *testing.T) {
	_, h := newTestServer(t, 60)
	var resp struct {
		Radius int               `json:"radius"`
		Seed   int64             `json:"seed"`
		Tiles  []json.RawMessage `json:"tiles"`
		Ports  []struct {
			Coord    world.VertexCoord `json:"coord"`
			Resource string            `json:"resource"`
			Ratio    int               `json:"ratio"`
		} `json:"ports"`
		Vertices int `json:"vertices"`
		Edges    int `json:"edges"`
	}
	if code := get(t, h, "/api/v1/board", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Radius != 3 || resp.Seed != 17 || len(resp.Tiles) != 37 {
		t.Errorf("radius %d seed %d tiles %d", resp.Radius, resp.Seed, len(resp.Tiles))
	}
	if len(resp.Ports) != 18 || resp.Vertices != 54 || resp.Edges != 72 {
		t.Errorf("ports %d vertices %d edges %d", len(resp.Ports), resp.Vertices, resp.Edges)
	}
	for _, p := range resp.Ports {
		if p.Resource == "any" && p.Ratio != 3 || p.Resource != "any" && p.Ratio != 2 {
			t.Errorf("port %s has ratio %d", p.Resource, p.Ratio)
		}
	}
}

func TestTileEndpoint(t *testing.T) {
	_, h := newTestServer(t, 60)
	var resp struct {
		Vertices  []json.RawMessage `json:"vertices"`
		Edges     []json.RawMessage `json:"edges"`
		Neighbors []world.HexCoord  `json:"neighbors"`
	}
	if code := get(t, h, "/api/v1/tile/0/0", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(resp.Vertices) != 6 || len(resp.Edges) != 6 || len(resp.Neighbors) != 6 {
		t.Errorf("center tile: %d vertices %d edges %d neighbors", len(resp.Vertices), len(resp.Edges), len(resp.Neighbors))
	}
	if code := get(t, h, "/api/v1/tile/9/9", nil); code != http.StatusNotFound {
		t.Errorf("off-board tile: status %d", code)
	}
	if code := get(t, h, "/api/v1/tile/a/b", nil); code != http.StatusBadRequest {
		t.Errorf("bad coordinates: status %d", code)
	}
}

func TestDiceEndpoint(t *testing.T) {
	s, h := newTestServer(t, 60)
	var none []json.RawMessage
	if code := get(t, h, "/api/v1/dice/7", &none); code != http.StatusOK || len(none) != 0 {
		t.Errorf("dice 7: status %d, %d tiles", code, len(none))
	}
	var eights []json.RawMessage
	want := len(s.Board.TilesWithDice(8))
	if code := get(t, h, "/api/v1/dice/8", &eights); code != http.StatusOK || len(eights) != want {
		t.Errorf("dice 8: status %d, %d tiles, want %d", code, len(eights), want)
	}
	if code := get(t, h, "/api/v1/dice/13", nil); code != http.StatusBadRequest {
		t.Errorf("dice 13: status %d", code)
	}
}

func TestBuildAuth(t *testing.T) {
	s, h := newTestServer(t, 60)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/road", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d", rec.Code)
	}

	if code := get(t, h, "/api/v1/road", nil); code != http.StatusMethodNotAllowed {
		t.Errorf("GET road: status %d", code)
	}

	s.AdminKey = ""
	if code := post(t, s.Handler(), "/api/v1/road", map[string]int{"player": 1}, nil); code != http.StatusForbidden {
		t.Errorf("no admin key: status %d", code)
	}
}

func TestBuildFlowAndLongestRoad(t *testing.T) {
	s, h := newTestServer(t, 100)
	ring := centerRing(t, s.Board)

	settle := map[string]any{"player": 1, "q": ring[0].Q, "r": ring[0].R, "setup": true}
	if code := post(t, h, "/api/v1/settlement", settle, nil); code != http.StatusOK {
		t.Fatalf("settlement: status %d", code)
	}
	if code := post(t, h, "/api/v1/settlement", settle, nil); code != http.StatusConflict {
		t.Errorf("second settlement: status %d", code)
	}
	// The neighbor is too close.
	near := map[string]any{"player": 2, "q": ring[1].Q, "r": ring[1].R, "setup": true}
	if code := post(t, h, "/api/v1/settlement", near, nil); code != http.StatusConflict {
		t.Errorf("settlement next door: status %d", code)
	}

	// A road far from player 1's pieces is rejected.
	far := s.Board.EdgeBetween(ring[3], ring[4]).Coord
	if code := post(t, h, "/api/v1/road", map[string]any{"player": 1, "q": far.Q, "r": far.R}, nil); code != http.StatusConflict {
		t.Errorf("unconnected road: status %d", code)
	}

	for i := 0; i < 5; i++ {
		ec := s.Board.EdgeBetween(ring[i], ring[i+1]).Coord
		var resp struct {
			Longest *int `json:"longest_road"`
			Changed bool `json:"longest_road_changed"`
			Holder  int  `json:"holder"`
			Record  int  `json:"record"`
		}
		if code := post(t, h, "/api/v1/road", map[string]any{"player": 1, "q": ec.Q, "r": ec.R}, &resp); code != http.StatusOK {
			t.Fatalf("road %d: status %d", i, code)
		}
		if want := i == 4; resp.Changed != want {
			t.Errorf("road %d: changed %v, want %v", i, resp.Changed, want)
		}
		switch {
		case resp.Changed && (resp.Longest == nil || *resp.Longest != 5 || resp.Record != 5 || resp.Holder != 1):
			t.Errorf("road %d: award %+v", i, resp)
		case !resp.Changed && (resp.Longest != nil || resp.Record != 0 || resp.Holder != 0):
			t.Errorf("road %d: unchanged response carries %+v", i, resp)
		}
	}

	var longest struct {
		Longest int `json:"longest"`
		Holder  int `json:"holder"`
		Record  int `json:"record"`
	}
	if code := get(t, h, "/api/v1/longest/1", &longest); code != http.StatusOK {
		t.Fatalf("longest: status %d", code)
	}
	if longest.Longest != 5 || longest.Holder != 1 || longest.Record != 5 {
		t.Errorf("longest %+v", longest)
	}

	city := map[string]any{"player": 1, "q": ring[0].Q, "r": ring[0].R}
	if code := post(t, h, "/api/v1/city", city, nil); code != http.StatusOK {
		t.Errorf("city: status %d", code)
	}
	city["player"] = 2
	if code := post(t, h, "/api/v1/city", city, nil); code != http.StatusConflict {
		t.Errorf("city on opponent settlement: status %d", code)
	}
}

func TestSpotsEndpoint(t *testing.T) {
	s, h := newTestServer(t, 60)
	var resp struct {
		Roads       []world.EdgeCoord   `json:"roads"`
		Settlements []world.VertexCoord `json:"settlements"`
	}
	if code := get(t, h, "/api/v1/spots/1?setup=true", &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(resp.Settlements) != len(s.Board.Vertices) || len(resp.Roads) != 0 {
		t.Errorf("empty board: %d settlement spots, %d road spots", len(resp.Settlements), len(resp.Roads))
	}
	if code := get(t, h, "/api/v1/spots/0", nil); code != http.StatusBadRequest {
		t.Errorf("player 0: status %d", code)
	}
}

func TestRobberEndpoint(t *testing.T) {
	s, h := newTestServer(t, 60)
	land := s.Board.LandTiles()[0].Coord
	if code := post(t, h, "/api/v1/robber", map[string]int{"q": land.Q, "r": land.R}, nil); code != http.StatusOK {
		t.Fatalf("move robber: status %d", code)
	}
	if got, _ := s.Board.Robber(); got != land {
		t.Errorf("robber at %s, want %s", got, land)
	}
	if code := post(t, h, "/api/v1/robber", map[string]int{"q": 3, "r": 0}, nil); code != http.StatusBadRequest {
		t.Errorf("robber into the sea: status %d", code)
	}
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, 2)
	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/road", bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] == http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("statuses %v, want the third request limited", codes)
	}
}

func TestBuildsAreLogged(t *testing.T) {
	s, h := newTestServer(t, 60)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s.DB = db

	vc := s.Board.SortedVertices()[0]
	if code := post(t, h, "/api/v1/settlement", map[string]any{"player": 3, "q": vc.Q, "r": vc.R, "setup": true}, nil); code != http.StatusOK {
		t.Fatalf("settlement: status %d", code)
	}
	var builds []persistence.BuildRecord
	if code := get(t, h, "/api/v1/builds", &builds); code != http.StatusOK {
		t.Fatalf("builds: status %d", code)
	}
	if len(builds) != 1 || builds[0].Kind != "settlement" || builds[0].Player != 3 {
		t.Errorf("builds = %s", fmt.Sprint(builds))
	}
}
