package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCoord(t *testing.T) {
	require.Equal(t, "aa", encodeCoord(0, 0))
	require.Equal(t, "ca", encodeCoord(2, 0))
	require.Equal(t, "sz", encodeCoord(18, 25))

	x, y, err := decodeCoord("ca")
	require.NoError(t, err)
	require.Equal(t, 2, x)
	require.Equal(t, 0, y)
}

func TestDecodeCoordRejectsBadTokens(t *testing.T) {
	_, _, err := decodeCoord("a")
	require.Error(t, err)
	_, _, err = decodeCoord("a!")
	require.Error(t, err)
}

func TestDecodeCoordString(t *testing.T) {
	coords, err := decodeCoordString("aabace")
	require.NoError(t, err)
	require.Equal(t, []Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 4}}, coords)

	_, err = decodeCoordString("aab")
	require.Error(t, err, "odd-length strings are malformed")

	coords, err = decodeCoordString("")
	require.NoError(t, err)
	require.Empty(t, coords)
}
