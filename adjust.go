package main

// AdjustEstimate reconciles a raw ownership/score pair with the active
// rule set and returns the corrected advisory score plus the ownership map
// used for display. The score convention is black minus white throughout.
//
// White's handicap compensation always comes off first. Area counting
// then uses the raw values unchanged. Territory counting reworks both:
// a live stone whose ownership agrees with its color displays as neutral
// (its point is not territory), and every occupied cell shifts the score
// one point toward the opponent, charging each stone a one-point cost that
// recorded prisoners later offset.
func AdjustEstimate(rules RuleSet, board Board, ownership OwnershipMap, score float64, blackPrisoners, whitePrisoners int) (float64, OwnershipMap) {
	adjusted := score - rules.HandicapPointAdjustmentForWhite()
	display := ownership.Clone()
	if rules.ScoreStones {
		return adjusted, display
	}

	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			cell := board.At(x, y)
			if !cell.IsStone() {
				continue
			}
			value := ownership.At(x, y)
			if (cell == CellBlack && value > 0) || (cell == CellWhite && value < 0) {
				display.Set(x, y, 0)
			}
			if cell == CellBlack {
				adjusted--
			} else {
				adjusted++
			}
		}
	}
	adjusted += float64(blackPrisoners)
	adjusted -= float64(whitePrisoners)
	return adjusted, display
}
