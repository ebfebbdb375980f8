package engine

import (
	"math"
	"time"
)

// maxRank is the rank that maps to the bottom of the scoring curve.
const maxRank = 10000

// Score maps a rank to points on a log scale: rank 1 is worth 1000, rank
// 10000 and beyond are worth 1.
func Score(rank int) int {
	if rank <= 0 {
		return 0
	}
	score := 1000 * (1 - math.Log10(float64(rank))/math.Log10(maxRank))
	return max(int(math.Floor(score)), 1)
}

func IsRoundOver(s State, now time.Time) bool {
	if !s.Active || s.StartTime.IsZero() {
		return false
	}
	return now.Sub(s.StartTime) >= RoundDuration
}

// Winner returns the highest scoring player. Ties go to whoever joined first.
func Winner(s State) (Player, bool) {
	var best Player
	found := false
	for _, p := range s.Players {
		if !found || p.Score > best.Score || (p.Score == best.Score && p.Seq < best.Seq) {
			best = p
			found = true
		}
	}
	return best, found
}

// TimeRemaining is in whole seconds; an idle room reports the full round.
func TimeRemaining(s State, now time.Time) int {
	if !s.Active || s.StartTime.IsZero() {
		return int(RoundDuration / time.Second)
	}
	left := RoundDuration - now.Sub(s.StartTime)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}
