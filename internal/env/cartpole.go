package env

import (
	"errors"
	"math"
	"math/rand"
)

// CartPoleID is the registry id of the cart-pole balancing task.
const CartPoleID = "CartPole-v1"

// CartPole balances a pole hinged on a cart by pushing the cart left (0) or
// right (1). Every step the pole stays up earns a reward of 1.
type CartPole struct {
	MaxSteps int

	x, xDot, theta, thetaDot float64
	steps                    int
	done                     bool
	started                  bool

	rng *rand.Rand
}

const (
	cpGravity    = 9.8
	cpMassCart   = 1.0
	cpMassPole   = 0.1
	cpTotalMass  = cpMassCart + cpMassPole
	cpHalfLength = 0.5
	cpPoleMoment = cpMassPole * cpHalfLength
	cpForceMag   = 10.0
	cpTau        = 0.02
	cpXLimit     = 2.4
	cpThetaLimit = 12 * 2 * math.Pi / 360
)

// NewCartPole creates a cart-pole task truncated after 500 steps.
func NewCartPole(seed int64) *CartPole {
	return &CartPole{
		MaxSteps: 500,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (c *CartPole) ObservationSpace() Space {
	// x, ẋ, θ, θ̇; positions are bounded at twice the termination limits.
	return Space{
		Dim:  4,
		Low:  []float64{-2 * cpXLimit, math.Inf(-1), -2 * cpThetaLimit, math.Inf(-1)},
		High: []float64{2 * cpXLimit, math.Inf(1), 2 * cpThetaLimit, math.Inf(1)},
	}
}

func (c *CartPole) ActionSpace() Space {
	return Space{Discrete: true, N: 2}
}

func (c *CartPole) Reset(seed *int64) ([]float64, Info, error) {
	if seed != nil {
		c.rng = rand.New(rand.NewSource(*seed))
	}
	c.x = c.uniform(-0.05, 0.05)
	c.xDot = c.uniform(-0.05, 0.05)
	c.theta = c.uniform(-0.05, 0.05)
	c.thetaDot = c.uniform(-0.05, 0.05)
	c.steps = 0
	c.done = false
	c.started = true
	return c.observation(), Info{}, nil
}

func (c *CartPole) Step(action Action) (Step, error) {
	if !c.started {
		return Step{}, errors.New("cart-pole: step before reset")
	}
	if action.Index != 0 && action.Index != 1 {
		return Step{}, errors.New("cart-pole: action must be 0 or 1")
	}
	if c.done {
		return Step{Observation: c.observation(), Terminated: true, Info: Info{}}, nil
	}

	force := -cpForceMag
	if action.Index == 1 {
		force = cpForceMag
	}
	cosT, sinT := math.Cos(c.theta), math.Sin(c.theta)
	temp := (force + cpPoleMoment*c.thetaDot*c.thetaDot*sinT) / cpTotalMass
	thetaAcc := (cpGravity*sinT - cosT*temp) /
		(cpHalfLength * (4.0/3.0 - cpMassPole*cosT*cosT/cpTotalMass))
	xAcc := temp - cpPoleMoment*thetaAcc*cosT/cpTotalMass

	c.x += cpTau * c.xDot
	c.xDot += cpTau * xAcc
	c.theta += cpTau * c.thetaDot
	c.thetaDot += cpTau * thetaAcc
	c.steps++

	terminated := math.Abs(c.x) > cpXLimit || math.Abs(c.theta) > cpThetaLimit
	truncated := !terminated && c.MaxSteps > 0 && c.steps >= c.MaxSteps
	c.done = terminated || truncated

	return Step{
		Observation: c.observation(),
		Reward:      1,
		Terminated:  terminated,
		Truncated:   truncated,
		Info:        Info{"steps": c.steps},
	}, nil
}

func (c *CartPole) Close() error {
	return nil
}

func (c *CartPole) observation() []float64 {
	return []float64{c.x, c.xDot, c.theta, c.thetaDot}
}

func (c *CartPole) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*c.rng.Float64()
}
