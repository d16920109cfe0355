package ga

import "fmt"

// SelectParents runs PopSize independent tournaments over fitness and returns
// the winning indices.
func (e *Engine) SelectParents(fitness []float64) ([]int, error) {
	if len(fitness) != e.cfg.PopSize {
		return nil, fmt.Errorf("%w: got %d fitness values for pop_size %d", ErrInvalidFitnessLength, len(fitness), e.cfg.PopSize)
	}
	parents := make([]int, e.cfg.PopSize)
	for i := range parents {
		parents[i] = e.tournament(fitness)
	}
	return parents, nil
}

// tournament draws TournamentSize distinct contenders uniformly without
// replacement and returns the one with the strictly greatest fitness; on a
// tie the contender drawn first wins.
func (e *Engine) tournament(fitness []float64) int {
	contenders := e.sampleDistinct(len(fitness), e.cfg.TournamentSize)
	best := contenders[0]
	for _, c := range contenders[1:] {
		if fitness[c] > fitness[best] {
			best = c
		}
	}
	return best
}

// sampleDistinct returns k distinct indices from [0, n) in draw order using a
// partial Fisher-Yates shuffle.
func (e *Engine) sampleDistinct(n, k int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + e.rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k]
}
