// Package move defines the four directional moves of the game and
// conversions between moves and their textual forms.
package move

import "fmt"

// Move is one of the four swipe directions.
type Move uint8

const (
	Up Move = iota
	Down
	Left
	Right
)

// AllMoves lists every direction in the order the engine examines them.
var AllMoves = [4]Move{Up, Down, Left, Right}

func (m Move) String() string {
	switch m {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("move(%d)", uint8(m))
}

// Parse converts a user-visible direction name ("up", "u", etc) to a Move.
func Parse(s string) (Move, error) {
	switch s {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("unrecognized direction %q", s)
}
