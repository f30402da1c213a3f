package main

import "fmt"

// Coordinates travel between collaborators as two-letter tokens, 'a'+x
// followed by 'a'+y. The alphabet caps boards at 26x26, which covers the
// supported sizes.
const coordAlphabet = "abcdefghijklmnopqrstuvwxyz"

func encodeCoord(x, y int) string {
	return string(coordAlphabet[x]) + string(coordAlphabet[y])
}

func decodeCoord(token string) (int, int, error) {
	if len(token) != 2 {
		return 0, 0, fmt.Errorf("coordinate token %q: want 2 characters", token)
	}
	x := int(token[0] - 'a')
	y := int(token[1] - 'a')
	if x < 0 || x >= len(coordAlphabet) || y < 0 || y >= len(coordAlphabet) {
		return 0, 0, fmt.Errorf("coordinate token %q: out of alphabet", token)
	}
	return x, y, nil
}

// decodeCoordString splits a concatenation of two-letter tokens back into
// coordinates.
func decodeCoordString(encoded string) ([]Coord, error) {
	if len(encoded)%2 != 0 {
		return nil, fmt.Errorf("coordinate string %q: odd length", encoded)
	}
	coords := make([]Coord, 0, len(encoded)/2)
	for i := 0; i < len(encoded); i += 2 {
		x, y, err := decodeCoord(encoded[i : i+2])
		if err != nil {
			return nil, err
		}
		coords = append(coords, Coord{X: x, Y: y})
	}
	return coords, nil
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) Equals(other Coord) bool {
	return c.X == other.X && c.Y == other.Y
}
