// Package persistence provides SQLite-based board storage.
package persistence

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexboard/internal/entropy"
	"github.com/talgya/hexboard/internal/world"
)

// ErrBoardNotFound is returned by LoadBoard for an unknown board ID.
var ErrBoardNotFound = errors.New("board not found")

// DB wraps a SQLite connection for board persistence.
type DB struct {
	conn *sqlx.DB
}

// BoardSummary is one row of the board listing.
type BoardSummary struct {
	ID        string `db:"id" json:"id"`
	Radius    int    `db:"radius" json:"radius"`
	Seed      int64  `db:"seed" json:"seed"`
	Created   int64  `db:"created_at" json:"created_at"`
	Updated   int64  `db:"updated_at" json:"updated_at"`
	LandTiles int    `db:"land_tiles" json:"land_tiles"`
	Builds    int    `db:"builds" json:"builds"`
}

// CreatedAt returns the creation time.
func (s BoardSummary) CreatedAt() time.Time { return time.Unix(s.Created, 0) }

// UpdatedAt returns the time of the last save.
func (s BoardSummary) UpdatedAt() time.Time { return time.Unix(s.Updated, 0) }

// BuildRecord is one entry of a board's build log.
type BuildRecord struct {
	ID      int64  `db:"id" json:"id"`
	Kind    string `db:"kind" json:"kind"`
	Q       int    `db:"q" json:"q"`
	R       int    `db:"r" json:"r"`
	Player  int    `db:"player" json:"player"`
	BuiltAt int64  `db:"built_at" json:"built_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		radius INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tiles (
		board_id TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		resource TEXT NOT NULL,
		dice INTEGER NOT NULL,
		robber INTEGER NOT NULL,
		PRIMARY KEY (board_id, q, r)
	);

	CREATE TABLE IF NOT EXISTS ports (
		board_id TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		resource TEXT NOT NULL,
		pair INTEGER NOT NULL,
		PRIMARY KEY (board_id, q, r)
	);

	CREATE TABLE IF NOT EXISTS buildings (
		board_id TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		city INTEGER NOT NULL,
		PRIMARY KEY (board_id, q, r)
	);

	CREATE TABLE IF NOT EXISTS roads (
		board_id TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		PRIMARY KEY (board_id, q, r)
	);

	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		player INTEGER NOT NULL,
		built_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_builds_board ON builds(board_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// NewBoardID returns a fresh board identifier.
func NewBoardID() string {
	return uuid.NewString()
}

// SaveBoard writes the full state of a board under id, replacing any
// previous save of the same board. The build log is kept.
func (db *DB) SaveBoard(id string, b *world.Board) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(err, "board id %q", id)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.Exec(`INSERT INTO boards (id, radius, seed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, b.Radius, b.Seed, now, now,
	); err != nil {
		return errors.Wrap(err, "upsert board")
	}

	for _, table := range []string{"tiles", "ports", "buildings", "roads"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE board_id = ?", id); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO tiles (board_id, q, r, resource, dice, robber)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range b.Coords() {
		t := b.Get(c)
		robber := 0
		if t.Robber {
			robber = 1
		}
		if _, err := stmt.Exec(id, c.Q, c.R, t.Resource.String(), t.Dice, robber); err != nil {
			return errors.Wrapf(err, "insert tile %s", c)
		}
	}

	for _, v := range b.Ports() {
		if _, err := tx.Exec(`INSERT INTO ports (board_id, q, r, resource, pair) VALUES (?, ?, ?, ?, ?)`,
			id, v.Coord.Q, v.Coord.R, v.Port.Resource.String(), v.Port.Pair,
		); err != nil {
			return errors.Wrapf(err, "insert port %s", v.Coord)
		}
	}

	for _, vc := range b.SortedVertices() {
		v := b.Vertex(vc)
		if v.Owner == world.NoPlayer {
			continue
		}
		city := 0
		if v.City {
			city = 1
		}
		if _, err := tx.Exec(`INSERT INTO buildings (board_id, q, r, owner, city) VALUES (?, ?, ?, ?, ?)`,
			id, vc.Q, vc.R, int(v.Owner), city,
		); err != nil {
			return errors.Wrapf(err, "insert building %s", vc)
		}
	}

	for _, ec := range b.SortedEdges() {
		e := b.Edge(ec)
		if e.Owner == world.NoPlayer {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO roads (board_id, q, r, owner) VALUES (?, ?, ?, ?)`,
			id, ec.Q, ec.R, int(e.Owner),
		); err != nil {
			return errors.Wrapf(err, "insert road %s", ec)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	slog.Info("board saved", "id", id, "tiles", b.TileCount(), "ports", len(b.Ports()))
	return nil
}

type tileRow struct {
	Q        int    `db:"q"`
	R        int    `db:"r"`
	Resource string `db:"resource"`
	Dice     int    `db:"dice"`
	Robber   bool   `db:"robber"`
}

type portRow struct {
	Q        int    `db:"q"`
	R        int    `db:"r"`
	Resource string `db:"resource"`
	Pair     int    `db:"pair"`
}

type buildingRow struct {
	Q     int  `db:"q"`
	R     int  `db:"r"`
	Owner int  `db:"owner"`
	City  bool `db:"city"`
}

type roadRow struct {
	Q     int `db:"q"`
	R     int `db:"r"`
	Owner int `db:"owner"`
}

// LoadBoard rebuilds a stored board: the tile registry, then the graph, then
// ports, buildings and roads on top of it.
func (db *DB) LoadBoard(id string) (*world.Board, error) {
	var meta struct {
		Radius int   `db:"radius"`
		Seed   int64 `db:"seed"`
	}
	err := db.conn.Get(&meta, "SELECT radius, seed FROM boards WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrBoardNotFound, "board %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load board")
	}

	var tiles []tileRow
	if err := db.conn.Select(&tiles, "SELECT q, r, resource, dice, robber FROM tiles WHERE board_id = ?", id); err != nil {
		return nil, errors.Wrap(err, "load tiles")
	}
	m := world.NewMap(meta.Radius)
	for _, row := range tiles {
		t := &world.Tile{Coord: world.HexCoord{Q: row.Q, R: row.R}, Dice: row.Dice, Robber: row.Robber}
		if !m.InBounds(t.Coord) {
			return nil, errors.Wrapf(world.ErrUnknownTile, "tile %s outside radius %d", t.Coord, meta.Radius)
		}
		if err := t.Resource.UnmarshalText([]byte(row.Resource)); err != nil {
			return nil, errors.Wrapf(err, "tile %s", t.Coord)
		}
		m.Set(t)
	}

	b, err := world.NewBoard(m, entropy.NewRand(meta.Seed))
	if err != nil {
		return nil, errors.Wrap(err, "rebuild graph")
	}
	b.Seed = meta.Seed

	var ports []portRow
	if err := db.conn.Select(&ports, "SELECT q, r, resource, pair FROM ports WHERE board_id = ?", id); err != nil {
		return nil, errors.Wrap(err, "load ports")
	}
	for _, row := range ports {
		var res world.Resource
		if err := res.UnmarshalText([]byte(row.Resource)); err != nil {
			return nil, errors.Wrapf(err, "port at (%d,%d)", row.Q, row.R)
		}
		if err := b.AssignPort(world.VertexCoord{Q: row.Q, R: row.R}, res, row.Pair); err != nil {
			return nil, err
		}
	}

	var buildings []buildingRow
	if err := db.conn.Select(&buildings, "SELECT q, r, owner, city FROM buildings WHERE board_id = ?", id); err != nil {
		return nil, errors.Wrap(err, "load buildings")
	}
	for _, row := range buildings {
		v := b.Vertex(world.VertexCoord{Q: row.Q, R: row.R})
		if v == nil {
			return nil, errors.Wrapf(world.ErrUnknownVertex, "building at (%d,%d)", row.Q, row.R)
		}
		v.Owner, v.City = world.PlayerID(row.Owner), row.City
	}

	var roads []roadRow
	if err := db.conn.Select(&roads, "SELECT q, r, owner FROM roads WHERE board_id = ?", id); err != nil {
		return nil, errors.Wrap(err, "load roads")
	}
	for _, row := range roads {
		e := b.Edge(world.EdgeCoord{Q: row.Q, R: row.R})
		if e == nil {
			return nil, errors.Wrapf(world.ErrUnknownEdge, "road at (%d,%d)", row.Q, row.R)
		}
		e.Owner = world.PlayerID(row.Owner)
	}

	slog.Info("board loaded", "id", id, "tiles", b.TileCount(), "buildings", len(buildings), "roads", len(roads))
	return b, nil
}

// ListBoards returns every stored board, most recently updated first.
func (db *DB) ListBoards() ([]BoardSummary, error) {
	var out []BoardSummary
	err := db.conn.Select(&out, `SELECT b.id, b.radius, b.seed, b.created_at, b.updated_at,
		(SELECT COUNT(*) FROM tiles t WHERE t.board_id = b.id AND t.resource != 'water') AS land_tiles,
		(SELECT COUNT(*) FROM builds l WHERE l.board_id = b.id) AS builds
		FROM boards b ORDER BY b.updated_at DESC, b.id`)
	return out, errors.Wrap(err, "list boards")
}

// RecordBuild appends an entry to the board's build log.
func (db *DB) RecordBuild(boardID, kind string, q, r int, player world.PlayerID) error {
	_, err := db.conn.Exec(
		"INSERT INTO builds (board_id, kind, q, r, player, built_at) VALUES (?, ?, ?, ?, ?, ?)",
		boardID, kind, q, r, int(player), time.Now().Unix(),
	)
	return errors.Wrap(err, "record build")
}

// RecentBuilds returns the most recent N builds of a board.
func (db *DB) RecentBuilds(boardID string, limit int) ([]BuildRecord, error) {
	var out []BuildRecord
	err := db.conn.Select(&out,
		"SELECT id, kind, q, r, player, built_at FROM builds WHERE board_id = ? ORDER BY id DESC LIMIT ?",
		boardID, limit,
	)
	return out, errors.Wrap(err, "recent builds")
}
