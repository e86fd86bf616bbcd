package world

import "fmt"

// Resource is the kind of a tile, and the accepted kind of a port.
type Resource uint8

const (
	ResourceBrick  Resource = iota // Hills
	ResourceGrain                  // Fields
	ResourceLumber                 // Forest
	ResourceOre                    // Mountains
	ResourceWool                   // Pasture
	ResourceDesert                 // Produces nothing, starts with the robber
	ResourceWater                  // Perimeter sea
	ResourceAny                    // Port wildcard, never a tile kind
)

// ProducingResources are the five kinds a land tile can yield.
var ProducingResources = [5]Resource{
	ResourceBrick,
	ResourceGrain,
	ResourceLumber,
	ResourceOre,
	ResourceWool,
}

var resourceNames = [...]string{
	ResourceBrick:  "brick",
	ResourceGrain:  "grain",
	ResourceLumber: "lumber",
	ResourceOre:    "ore",
	ResourceWool:   "wool",
	ResourceDesert: "desert",
	ResourceWater:  "water",
	ResourceAny:    "any",
}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", uint8(r))
}

// MarshalText encodes the resource by name.
func (r Resource) MarshalText() ([]byte, error) {
	if int(r) >= len(resourceNames) {
		return nil, fmt.Errorf("unknown resource %d", uint8(r))
	}
	return []byte(resourceNames[r]), nil
}

// UnmarshalText decodes a resource name.
func (r *Resource) UnmarshalText(b []byte) error {
	for i, name := range resourceNames {
		if name == string(b) {
			*r = Resource(i)
			return nil
		}
	}
	return fmt.Errorf("unknown resource %q", string(b))
}

// IsLand reports whether tiles of this kind are part of the island.
func (r Resource) IsLand() bool {
	return r != ResourceWater
}

// Tile is a single hex of the board.
type Tile struct {
	Coord    HexCoord `json:"coord"`
	Resource Resource `json:"resource"`

	// Dice is the production number, 2–12. Zero for desert and water.
	Dice int `json:"dice,omitempty"`

	// Robber blocks production. Set by the game layer through Board.MoveRobber.
	Robber bool `json:"robber,omitempty"`

	// Vertices are the corners of this tile present in the board graph,
	// filled during graph construction.
	Vertices []VertexCoord `json:"-"`
}

// IsWater reports whether the tile is sea.
func (t *Tile) IsWater() bool {
	return t.Resource == ResourceWater
}

func (t *Tile) String() string {
	if t.Dice == 0 {
		return fmt.Sprintf("Tile%s[%s]", t.Coord, t.Resource)
	}
	return fmt.Sprintf("Tile%s[%s %d]", t.Coord, t.Resource, t.Dice)
}
