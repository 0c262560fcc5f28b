package brackets

import (
	"math/bits"
	"math/rand"
)

// Shuffle applies an in-place Fisher-Yates permutation: for i from the last index
// down to 1, swap with a uniformly chosen index in [0, i].
func Shuffle(rng *rand.Rand, ids []int) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// TotalRounds returns ceil(log2(n)). It is only defined for n >= 2.
func TotalRounds(n int) (int, error) {
	if n < 2 {
		return 0, ErrNotEnoughPlayers
	}
	return bits.Len(uint(n - 1)), nil
}

// MatchesInRound returns how many matches round `round` of an n-player bracket holds.
func MatchesInRound(n, round int) int {
	if n < 2 || round < 1 {
		return 0
	}
	m := (n + 1) / 2
	for r := 1; r < round; r++ {
		m = (m + 1) / 2
	}
	return m
}

// feederCount is the number of entries feeding a round: players for round 1,
// matches of the previous round otherwise.
func feederCount(n, round int) int {
	if round <= 1 {
		return n
	}
	return MatchesInRound(n, round-1)
}
