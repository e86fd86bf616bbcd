package world

import (
	"errors"
	"fmt"
)

// Generation errors abort board construction; they indicate a bad
// configuration or a defect, never a gameplay condition.
var (
	ErrInvalidRadius = errors.New("ring radius must be positive")
	ErrMalformedGrid = errors.New("malformed tile grid")
	ErrPortLayout    = errors.New("shore cannot hold the requested ports")
)

var (
	// ErrBuildRejected is wrapped by every *BuildError.
	ErrBuildRejected = errors.New("build rejected")

	// ErrInvalidOperation marks a caller contract violation, such as asking
	// for the road network of an unowned edge.
	ErrInvalidOperation = errors.New("invalid operation")

	ErrUnknownTile   = errors.New("unknown tile")
	ErrUnknownVertex = errors.New("unknown vertex")
	ErrUnknownEdge   = errors.New("unknown edge")
)

// BuildError reports an illegal build. Coord is the offending vertex or edge
// key, Owner the player already holding it (NoPlayer when unowned).
type BuildError struct {
	Target string // "road", "settlement" or "city"
	Coord  fmt.Stringer
	Player PlayerID
	Owner  PlayerID
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("player %d cannot build %s at %s: %s", e.Player, e.Target, e.Coord, e.Reason)
}

func (e *BuildError) Unwrap() error {
	return ErrBuildRejected
}
