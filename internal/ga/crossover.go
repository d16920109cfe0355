package ga

// Crossover recombines two parents. With probability CrossoverRate it performs
// uniform crossover: a per-gene fair coin picks which parent feeds child A and
// child B takes the other. Otherwise the children are copies of the parents.
// The parents are never modified.
func (e *Engine) Crossover(p1, p2 Genome) (Genome, Genome) {
	if e.rng.Float64() < e.cfg.CrossoverRate {
		return UniformCrossover(p1, p2, e.rng.Float64)
	}
	return p1.Clone(), p2.Clone()
}

// UniformCrossover builds complementary children from p1 and p2: gene i of c1
// comes from p1 when coin() < 0.5 and from p2 otherwise, and c2 gets the gene
// c1 did not take.
func UniformCrossover(p1, p2 Genome, coin func() float64) (Genome, Genome) {
	size := len(p1)
	c1 := make(Genome, size)
	c2 := make(Genome, size)

	for i := 0; i < size; i++ {
		if coin() < 0.5 {
			c1[i] = p1[i]
			c2[i] = p2[i]
		} else {
			c1[i] = p2[i]
			c2[i] = p1[i]
		}
	}
	return c1, c2
}
