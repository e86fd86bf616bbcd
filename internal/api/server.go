// Package api provides the HTTP API for a board.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token and are rate limited per IP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/talgya/hexboard/internal/persistence"
	"github.com/talgya/hexboard/internal/world"
)

// minLongestRoad is the length a road must beat to take the longest road.
const minLongestRoad = 4

// Server serves one board over HTTP.
type Server struct {
	Board         *world.Board
	BoardID       string
	DB            *persistence.DB // Optional; builds are logged when set
	Port          int
	AdminKey      string // Bearer token for POST endpoints. Empty = POST disabled.
	RatePerMinute int

	// mu serializes every access to Board.
	mu sync.Mutex

	// Current longest road holder.
	roadHolder world.PlayerID
	roadRecord int
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	rate := s.RatePerMinute
	if rate <= 0 {
		rate = 60
	}
	buildLimiter := NewRateLimiter(rate)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/board", s.handleBoard)
	mux.HandleFunc("/api/v1/tile/", s.handleTile)
	mux.HandleFunc("/api/v1/dice/", s.handleDice)
	mux.HandleFunc("/api/v1/spots/", s.handleSpots)
	mux.HandleFunc("/api/v1/longest/", s.handleLongest)
	mux.HandleFunc("/api/v1/builds", s.handleBuilds)

	// Build endpoints (POST, bearer token, rate limited).
	mux.HandleFunc("/api/v1/road", RateLimitMiddleware(buildLimiter, s.adminOnly(s.handleRoad)))
	mux.HandleFunc("/api/v1/settlement", RateLimitMiddleware(buildLimiter, s.adminOnly(s.handleSettlement)))
	mux.HandleFunc("/api/v1/city", RateLimitMiddleware(buildLimiter, s.adminOnly(s.handleCity)))
	mux.HandleFunc("/api/v1/robber", RateLimitMiddleware(buildLimiter, s.adminOnly(s.handleRobber)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "board", s.BoardID, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Lock and Unlock give callers outside the API (the final save) the same
// exclusive access the handlers use.
func (s *Server) Lock()   { s.mu.Lock() }
func (s *Server) Unlock() { s.mu.Unlock() }

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "build endpoints disabled (no API_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// pathInts parses the n integer segments following prefix in path.
func pathInts(path, prefix string, n int) ([]int, bool) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, prefix), "/"), "/")
	if len(parts) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

type portJSON struct {
	Coord world.VertexCoord `json:"coord"`
	*world.Port
}

// GET /api/v1/board
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tiles := make([]*world.Tile, 0, s.Board.TileCount())
	for _, c := range s.Board.Coords() {
		tiles = append(tiles, s.Board.Get(c))
	}
	ports := make([]portJSON, 0)
	for _, v := range s.Board.Ports() {
		ports = append(ports, portJSON{Coord: v.Coord, Port: v.Port})
	}

	resp := map[string]any{
		"id":       s.BoardID,
		"radius":   s.Board.Radius,
		"seed":     s.Board.Seed,
		"tiles":    tiles,
		"ports":    ports,
		"vertices": len(s.Board.Vertices),
		"edges":    len(s.Board.Edges),
	}
	if robber, ok := s.Board.Robber(); ok {
		resp["robber"] = robber
	}
	writeJSON(w, resp)
}

// GET /api/v1/tile/:q/:r
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	args, ok := pathInts(r.URL.Path, "/api/v1/tile/", 2)
	if !ok {
		http.Error(w, "usage: /api/v1/tile/:q/:r", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.Board.Tile(args[0], args[1])
	if t == nil {
		http.Error(w, "tile not found", http.StatusNotFound)
		return
	}
	c := t.Coord

	neighbors := make([]world.HexCoord, 0, 6)
	for _, n := range s.Board.NeighboringTiles(c) {
		neighbors = append(neighbors, n.Coord)
	}
	writeJSON(w, map[string]any{
		"tile":      t,
		"neighbors": neighbors,
		"vertices":  s.Board.VerticesFromTile(c),
		"edges":     s.Board.EdgesFromTile(c),
		"players":   s.Board.PlayersOnTile(c),
	})
}

// GET /api/v1/dice/:n
func (s *Server) handleDice(w http.ResponseWriter, r *http.Request) {
	args, ok := pathInts(r.URL.Path, "/api/v1/dice/", 1)
	if !ok || args[0] < 2 || args[0] > 12 {
		http.Error(w, "usage: /api/v1/dice/:n with n in 2-12", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type production struct {
		Tile    *world.Tile      `json:"tile"`
		Players []world.PlayerID `json:"players"`
	}
	out := make([]production, 0)
	for _, t := range s.Board.TilesWithDice(args[0]) {
		out = append(out, production{Tile: t, Players: s.Board.PlayersOnTile(t.Coord)})
	}
	writeJSON(w, out)
}

// GET /api/v1/spots/:player?setup=true
func (s *Server) handleSpots(w http.ResponseWriter, r *http.Request) {
	args, ok := pathInts(r.URL.Path, "/api/v1/spots/", 1)
	if !ok || args[0] <= 0 {
		http.Error(w, "usage: /api/v1/spots/:player", http.StatusBadRequest)
		return
	}
	p := world.PlayerID(args[0])
	setup := r.URL.Query().Get("setup") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()

	roads := make([]world.EdgeCoord, 0)
	for _, e := range s.Board.AvailableRoadSpots(p) {
		roads = append(roads, e.Coord)
	}
	settlements := make([]world.VertexCoord, 0)
	for _, v := range s.Board.AvailableSettlementSpots(p, setup) {
		settlements = append(settlements, v.Coord)
	}
	cities := make([]world.VertexCoord, 0)
	for _, v := range s.Board.BuildingsOf(p) {
		if !v.City {
			cities = append(cities, v.Coord)
		}
	}
	writeJSON(w, map[string]any{
		"player":      p,
		"roads":       roads,
		"settlements": settlements,
		"cities":      cities,
	})
}

// GET /api/v1/longest/:player
func (s *Server) handleLongest(w http.ResponseWriter, r *http.Request) {
	args, ok := pathInts(r.URL.Path, "/api/v1/longest/", 1)
	if !ok || args[0] <= 0 {
		http.Error(w, "usage: /api/v1/longest/:player", http.StatusBadRequest)
		return
	}
	p := world.PlayerID(args[0])

	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]any{
		"player":   p,
		"longest":  s.Board.LongestRoad(p),
		"networks": len(s.Board.RoadNetworks(p)),
		"roads":    len(s.Board.RoadsOf(p)),
		"holder":   s.roadHolder,
		"record":   s.roadRecord,
		"ports":    s.Board.PortsOf(p),
	})
}

// GET /api/v1/builds?limit=N
func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no database", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}
	builds, err := s.DB.RecentBuilds(s.BoardID, limit)
	if err != nil {
		slog.Error("recent builds", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, builds)
}

type buildRequest struct {
	Player int  `json:"player"`
	Q      int  `json:"q"`
	R      int  `json:"r"`
	Setup  bool `json:"setup"`
}

func decodeBuild(w http.ResponseWriter, r *http.Request) (buildRequest, bool) {
	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return req, false
	}
	if req.Player <= 0 {
		http.Error(w, "player must be positive", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// writeBuildError maps board errors to HTTP statuses.
func writeBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, world.ErrBuildRejected):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, world.ErrUnknownEdge), errors.Is(err, world.ErrUnknownVertex), errors.Is(err, world.ErrUnknownTile):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, world.ErrInvalidOperation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) logBuild(kind string, q, r int, p world.PlayerID) {
	slog.Info("build", "kind", kind, "q", q, "r", r, "player", p)
	if s.DB == nil {
		return
	}
	if err := s.DB.RecordBuild(s.BoardID, kind, q, r, p); err != nil {
		slog.Error("record build", "kind", kind, "error", err)
	}
}

// POST /api/v1/road {"player":1,"q":..,"r":..}
func (s *Server) handleRoad(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBuild(w, r)
	if !ok {
		return
	}
	p, ec := world.PlayerID(req.Player), world.EdgeCoord{Q: req.Q, R: req.R}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.Board.Edge(ec)
	if e == nil {
		writeBuildError(w, fmt.Errorf("road at %s: %w", ec, world.ErrUnknownEdge))
		return
	}
	if e.Owner == world.NoPlayer && !s.roadAllowed(ec, p) {
		writeBuildError(w, &world.BuildError{Target: "road", Coord: ec, Player: p, Reason: "not connected to the player's roads or buildings"})
		return
	}
	if err := s.Board.BuildRoad(ec, p); err != nil {
		writeBuildError(w, err)
		return
	}
	s.logBuild("road", ec.Q, ec.R, p)

	changed, err := s.Board.RecheckLongestRoad(ec, max(s.roadRecord, minLongestRoad))
	if err != nil {
		writeBuildError(w, err)
		return
	}
	resp := map[string]any{
		"edge":                 ec,
		"player":               p,
		"longest_road_changed": changed,
	}
	if changed {
		// Only the network holding ec can have passed the record.
		net, err := s.Board.RoadNetwork(ec)
		if err != nil {
			writeBuildError(w, err)
			return
		}
		longest := net.Longest()
		if s.roadHolder != p {
			slog.Info("longest road changed hands", "from", s.roadHolder, "to", p, "length", longest)
		}
		s.roadHolder, s.roadRecord = p, longest
		resp["longest_road"] = longest
	}
	resp["holder"] = s.roadHolder
	resp["record"] = s.roadRecord

	writeJSON(w, resp)
}

func (s *Server) roadAllowed(ec world.EdgeCoord, p world.PlayerID) bool {
	for _, e := range s.Board.AvailableRoadSpots(p) {
		if e.Coord == ec {
			return true
		}
	}
	return false
}

// POST /api/v1/settlement {"player":1,"q":..,"r":..,"setup":true}
func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBuild(w, r)
	if !ok {
		return
	}
	p, vc := world.PlayerID(req.Player), world.VertexCoord{Q: req.Q, R: req.R}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.Board.Vertex(vc)
	if v == nil {
		writeBuildError(w, fmt.Errorf("settlement at %s: %w", vc, world.ErrUnknownVertex))
		return
	}
	if v.Owner == world.NoPlayer && !s.settlementAllowed(vc, p, req.Setup) {
		writeBuildError(w, &world.BuildError{Target: "settlement", Coord: vc, Player: p, Reason: "too close to a building or not on the player's road"})
		return
	}
	if err := s.Board.BuildSettlement(vc, p); err != nil {
		writeBuildError(w, err)
		return
	}
	s.logBuild("settlement", vc.Q, vc.R, p)

	writeJSON(w, map[string]any{
		"vertex": vc,
		"player": p,
		"port":   v.Port,
	})
}

func (s *Server) settlementAllowed(vc world.VertexCoord, p world.PlayerID, setup bool) bool {
	for _, v := range s.Board.AvailableSettlementSpots(p, setup) {
		if v.Coord == vc {
			return true
		}
	}
	return false
}

// POST /api/v1/city {"player":1,"q":..,"r":..}
func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBuild(w, r)
	if !ok {
		return
	}
	p, vc := world.PlayerID(req.Player), world.VertexCoord{Q: req.Q, R: req.R}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Board.UpgradeToCity(vc, p); err != nil {
		writeBuildError(w, err)
		return
	}
	s.logBuild("city", vc.Q, vc.R, p)

	writeJSON(w, map[string]any{
		"vertex": vc,
		"player": p,
		"city":   true,
	})
}

// POST /api/v1/robber {"q":..,"r":..}
func (s *Server) handleRobber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q int `json:"q"`
		R int `json:"r"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	c := world.HexCoord{Q: req.Q, R: req.R}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Board.MoveRobber(c); err != nil {
		writeBuildError(w, err)
		return
	}
	slog.Info("robber moved", "tile", c)
	writeJSON(w, map[string]any{
		"robber":  c,
		"victims": s.Board.PlayersOnTile(c),
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
