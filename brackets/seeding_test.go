package brackets

import (
	"math/rand"
	"sort"
	"testing"
)

func TestTotalRounds(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {16, 4}, {17, 5},
	}
	for _, tt := range tests {
		got, err := TotalRounds(tt.n)
		if err != nil {
			t.Fatalf("TotalRounds(%d) error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("TotalRounds(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
	if _, err := TotalRounds(1); err != ErrNotEnoughPlayers {
		t.Errorf("TotalRounds(1) error = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestMatchesInRound(t *testing.T) {
	tests := []struct {
		n, round, want int
	}{
		{8, 1, 4}, {8, 2, 2}, {8, 3, 1},
		{5, 1, 3}, {5, 2, 2}, {5, 3, 1},
		{3, 1, 2}, {3, 2, 1},
		{2, 1, 1},
		{1, 1, 0},
	}
	for _, tt := range tests {
		if got := MatchesInRound(tt.n, tt.round); got != tt.want {
			t.Errorf("MatchesInRound(%d, %d) = %d, want %d", tt.n, tt.round, got, tt.want)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []int{10, 20, 30, 40, 50, 60, 70}
	Shuffle(rng, ids)

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	want := []int{10, 20, 30, 40, 50, 60, 70}
	for i := range want {
		if sorted[i] != want[i] {
			t.Fatalf("shuffled ids %v are not a permutation of %v", ids, want)
		}
	}
}

func TestShuffleDeterministicWithSeed(t *testing.T) {
	a := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(rand.New(rand.NewSource(7)), a)
	Shuffle(rand.New(rand.NewSource(7)), b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", a, b)
		}
	}
}
