package game

import "fmt"

// Direction is one of the four moves. Up/Down move along Y, Left/Right along X.
// (0,0) is the top-left corner, so Up decrements Y.
type Direction int8

const (
	Up    Direction = 0
	Down  Direction = 1
	Left  Direction = 2
	Right Direction = 3

	// NoDirection marks a snake that has not moved yet.
	NoDirection Direction = -1
)

// Directions lists the four moves in enumeration order.
var Directions = [4]Direction{Up, Down, Left, Right}

// Opposite returns the reversing move. {Up,Down} and {Left,Right} pair up.
func (d Direction) Opposite() Direction {
	if !d.Valid() {
		return NoDirection
	}
	return d ^ 1
}

func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseDirection accepts the names produced by String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "", "none":
		return NoDirection, nil
	}
	return NoDirection, fmt.Errorf("unknown direction %q", s)
}

// Location is a cell coordinate.
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Adjacent returns the neighbouring cell on a width x height torus.
func (l Location) Adjacent(d Direction, width, height int) Location {
	switch d {
	case Up:
		if l.Y == 0 {
			l.Y = height - 1
		} else {
			l.Y--
		}
	case Down:
		if l.Y == height-1 {
			l.Y = 0
		} else {
			l.Y++
		}
	case Left:
		if l.X == 0 {
			l.X = width - 1
		} else {
			l.X--
		}
	case Right:
		if l.X == width-1 {
			l.X = 0
		} else {
			l.X++
		}
	}
	return l
}

// DirectionTo returns the move that takes l to n, or NoDirection when the
// cells are not neighbours.
func (l Location) DirectionTo(n Location, width, height int) Direction {
	for _, d := range Directions {
		if l.Adjacent(d, width, height) == n {
			return d
		}
	}
	return NoDirection
}
