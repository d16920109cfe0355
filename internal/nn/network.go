package nn

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"neuroevo/internal/env"
)

// ErrNotDecoded is returned by Act before any genome has been decoded.
var ErrNotDecoded = errors.New("network parameters not decoded")

// FeedForward is a fully connected network with tanh hidden layers and a
// linear output layer.
//
// Decode overwrites the parameters in place so one instance can be reused for
// every genome of a generation. A FeedForward is therefore not safe for
// concurrent use; evaluate genomes in parallel with one network per worker.
type FeedForward struct {
	topology Topology
	layers   []Layer
}

// NewFeedForward creates an undecoded network for topology.
func NewFeedForward(t Topology) (*FeedForward, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &FeedForward{topology: append(Topology(nil), t...)}, nil
}

// ParamCount is the genome length Decode expects.
func (n *FeedForward) ParamCount() int {
	return n.topology.ParamCount()
}

// Decode replaces the network parameters with those encoded in genome.
func (n *FeedForward) Decode(genome []float64) error {
	layers, err := Decode(n.topology, genome)
	if err != nil {
		return err
	}
	n.layers = layers
	return nil
}

// Forward propagates obs through the network and returns the output logits.
func (n *FeedForward) Forward(obs []float64) ([]float64, error) {
	if len(n.layers) == 0 {
		return nil, ErrNotDecoded
	}
	if len(obs) != n.topology[0] {
		return nil, fmt.Errorf("%w: observation length %d, network expects %d", ErrShapeMismatch, len(obs), n.topology[0])
	}

	x := mat.NewVecDense(len(obs), append([]float64(nil), obs...))
	last := len(n.layers) - 1
	for i, l := range n.layers {
		_, out := l.Weights.Dims()
		y := mat.NewVecDense(out, nil)
		// x·W as a row vector is Wᵀx as a column vector.
		y.MulVec(l.Weights.T(), x)
		y.AddVec(y, l.Bias)
		if i < last {
			for j := 0; j < out; j++ {
				y.SetVec(j, math.Tanh(y.AtVec(j)))
			}
		}
		x = y
	}
	return x.RawVector().Data, nil
}

// Act picks an action for obs. Discrete action spaces get the index of the
// largest logit (lowest index on ties); continuous spaces get the raw logits.
func (n *FeedForward) Act(obs []float64, discrete bool) (env.Action, error) {
	logits, err := n.Forward(obs)
	if err != nil {
		return env.Action{}, err
	}
	if discrete {
		return env.Action{Index: argmax(logits)}, nil
	}
	return env.Action{Values: logits}, nil
}

func argmax(vals []float64) int {
	maxIdx := 0
	maxVal := vals[0]
	for i := 1; i < len(vals); i++ {
		if vals[i] > maxVal {
			maxVal = vals[i]
			maxIdx = i
		}
	}
	return maxIdx
}
