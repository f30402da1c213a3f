package main

import "context"

// Influence seeding and the dilation/erosion schedule. The classic Bouzy
// radiation settings; they behave sensibly for every supported board size.
const (
	influenceSeed      = 128
	influenceDilations = 5
	influenceErosions  = 21
)

// LocalEstimator is the default ownership source: a synchronous influence
// heuristic that radiates stone influence outward (dilation) and then
// shaves contested fringes back (erosion). Deterministic for a given
// board; the trials knob is only meaningful for sampling scorers and is
// ignored here.
type LocalEstimator struct{}

func NewLocalEstimator() *LocalEstimator {
	return &LocalEstimator{}
}

func (e *LocalEstimator) Estimate(ctx context.Context, req EstimateRequest) (EstimateResult, error) {
	if err := ctx.Err(); err != nil {
		return EstimateResult{}, err
	}

	board := req.Board
	width := board.Width()
	height := board.Height()
	influence := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			switch board.At(x, y) {
			case CellBlack:
				influence[y*width+x] = influenceSeed
			case CellWhite:
				influence[y*width+x] = -influenceSeed
			}
		}
	}

	scratch := make([]int, len(influence))
	for i := 0; i < influenceDilations; i++ {
		dilate(influence, scratch, width, height)
	}
	for i := 0; i < influenceErosions; i++ {
		erode(influence, scratch, width, height)
	}

	ownership := NewOwnershipMap(width, height)
	score := -req.Rules.Komi
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			value := float64(influence[y*width+x]) / influenceSeed
			if value > 1 {
				value = 1
			} else if value < -1 {
				value = -1
			}
			ownership.Set(x, y, value)
			score += float64(signWithin(value, req.Tolerance))
		}
	}
	return EstimateResult{Ownership: ownership, Score: score}, nil
}

// dilate grows influence into cells that feel pressure from one color
// only: a non-negative cell with positive neighbors and no negative ones
// gains one per positive neighbor, and symmetrically for White.
func dilate(values, scratch []int, width, height int) {
	copy(scratch, values)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			pos, neg := neighborSigns(scratch, width, height, x, y)
			if scratch[idx] >= 0 && neg == 0 && pos > 0 {
				values[idx] = scratch[idx] + pos
			} else if scratch[idx] <= 0 && pos == 0 && neg > 0 {
				values[idx] = scratch[idx] - neg
			}
		}
	}
}

// erode pulls contested cells back toward neutral by one per
// non-reinforcing neighbor, flooring at zero so erosion never flips a
// cell's color.
func erode(values, scratch []int, width, height int) {
	copy(scratch, values)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			current := scratch[idx]
			if current == 0 {
				continue
			}
			pos, neg := neighborSigns(scratch, width, height, x, y)
			neighbors := neighborCount(width, height, x, y)
			if current > 0 {
				drain := neighbors - pos
				if drain > current {
					drain = current
				}
				values[idx] = current - drain
			} else {
				drain := neighbors - neg
				if drain > -current {
					drain = -current
				}
				values[idx] = current + drain
			}
		}
	}
}

func neighborSigns(values []int, width, height, x, y int) (pos, neg int) {
	for _, adj := range neighborCoords(Coord{X: x, Y: y}) {
		if adj.X < 0 || adj.Y < 0 || adj.X >= width || adj.Y >= height {
			continue
		}
		value := values[adj.Y*width+adj.X]
		if value > 0 {
			pos++
		} else if value < 0 {
			neg++
		}
	}
	return pos, neg
}

func neighborCount(width, height, x, y int) int {
	count := 0
	for _, adj := range neighborCoords(Coord{X: x, Y: y}) {
		if adj.X >= 0 && adj.Y >= 0 && adj.X < width && adj.Y < height {
			count++
		}
	}
	return count
}
