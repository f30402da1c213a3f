package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoardFromIntsRoundTrip(t *testing.T) {
	rows := [][]int{
		{0, 1, 2},
		{2, 0, 1},
	}
	board, err := BoardFromInts(rows)
	require.NoError(t, err)
	require.Equal(t, 3, board.Width())
	require.Equal(t, 2, board.Height())
	require.Equal(t, CellBlack, board.At(1, 0))
	require.Equal(t, CellWhite, board.At(0, 1))
	require.Equal(t, rows, boardToSlice(board))
}

func TestBoardFromIntsRejectsRaggedInput(t *testing.T) {
	_, err := BoardFromInts([][]int{{0, 1}, {0}})
	require.Error(t, err)
	_, err = BoardFromInts(nil)
	require.Error(t, err)
	_, err = BoardFromInts([][]int{{}})
	require.Error(t, err)
}

func TestBoardCloneIsIndependent(t *testing.T) {
	board := NewBoard(3, 3)
	board.Set(1, 1, CellBlack)
	clone := board.Clone()
	clone.Set(1, 1, CellWhite)
	require.Equal(t, CellBlack, board.At(1, 1))
}

func TestCellHelpers(t *testing.T) {
	require.Equal(t, CellWhite, CellBlack.Opponent())
	require.Equal(t, CellBlack, CellWhite.Opponent())
	require.Equal(t, CellEmpty, CellEmpty.Opponent())
	require.True(t, CellBlack.IsStone())
	require.False(t, CellEmpty.IsStone())
}
