package ga

// Mutate returns a copy of genome where each gene, independently with
// probability MutationRate, is shifted by Gaussian noise N(0, MutationSigma).
func (e *Engine) Mutate(genome Genome) Genome {
	out := genome.Clone()
	for i := range out {
		if e.rng.Float64() < e.cfg.MutationRate {
			out[i] += e.rng.NormFloat64() * e.cfg.MutationSigma
		}
	}
	return out
}
