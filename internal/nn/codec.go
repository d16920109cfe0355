package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShapeMismatch reports a genome or observation whose length does not
	// match the network topology.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidTopology reports a topology with fewer than two layers or a
	// non-positive width.
	ErrInvalidTopology = errors.New("invalid topology")
)

// Topology lists layer widths from input to output, e.g. [obs, 16, actions].
type Topology []int

// Validate checks there is at least one layer transition and every width is
// positive.
func (t Topology) Validate() error {
	if len(t) < 2 {
		return fmt.Errorf("%w: need at least input and output widths, got %v", ErrInvalidTopology, []int(t))
	}
	for i, w := range t {
		if w < 1 {
			return fmt.Errorf("%w: layer %d has width %d", ErrInvalidTopology, i, w)
		}
	}
	return nil
}

// ParamCount returns the genome length the topology decodes from: weights
// plus biases of every layer transition.
func (t Topology) ParamCount() int {
	n := 0
	for i := 0; i+1 < len(t); i++ {
		n += t[i]*t[i+1] + t[i+1]
	}
	return n
}

// Layer holds the parameters of one layer transition.
type Layer struct {
	Weights *mat.Dense    // in × out
	Bias    *mat.VecDense // out
}

// Decode splits genome into per-layer weights and biases. For each transition
// the first in*out genes are the row-major weight matrix and the next out
// genes the bias. The genome is copied, so the returned layers never alias it.
func Decode(t Topology, genome []float64) ([]Layer, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if want := t.ParamCount(); len(genome) != want {
		return nil, fmt.Errorf("%w: genome length %d, topology %v expects %d", ErrShapeMismatch, len(genome), []int(t), want)
	}

	layers := make([]Layer, 0, len(t)-1)
	offset := 0
	for i := 0; i+1 < len(t); i++ {
		in, out := t[i], t[i+1]

		w := make([]float64, in*out)
		offset += copy(w, genome[offset:offset+in*out])
		b := make([]float64, out)
		offset += copy(b, genome[offset:offset+out])

		layers = append(layers, Layer{
			Weights: mat.NewDense(in, out, w),
			Bias:    mat.NewVecDense(out, b),
		})
	}
	return layers, nil
}

// Flatten writes layers back into a flat genome, in the same order Decode
// reads them.
func Flatten(layers []Layer) []float64 {
	n := 0
	for _, l := range layers {
		r, c := l.Weights.Dims()
		n += r*c + l.Bias.Len()
	}

	genome := make([]float64, 0, n)
	for _, l := range layers {
		r, c := l.Weights.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				genome = append(genome, l.Weights.At(i, j))
			}
		}
		for i := 0; i < l.Bias.Len(); i++ {
			genome = append(genome, l.Bias.AtVec(i))
		}
	}
	return genome
}
