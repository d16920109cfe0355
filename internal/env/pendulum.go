package env

import (
	"errors"
	"math"
	"math/rand"
)

// PendulumID is the registry id of the pendulum swing-up task.
const PendulumID = "Pendulum-v1"

// Pendulum swings a frictionless pendulum upright with a bounded torque. The
// reward is the negative cost of angle, angular velocity and torque; episodes
// never terminate and are truncated after MaxSteps.
type Pendulum struct {
	MaxSteps int

	theta, thetaDot float64
	steps           int
	started         bool

	rng *rand.Rand
}

const (
	pdMaxSpeed  = 8.0
	pdMaxTorque = 2.0
	pdDt        = 0.05
	pdGravity   = 10.0
	pdMass      = 1.0
	pdLength    = 1.0
)

// NewPendulum creates a pendulum task truncated after 200 steps.
func NewPendulum(seed int64) *Pendulum {
	return &Pendulum{
		MaxSteps: 200,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

func (p *Pendulum) ObservationSpace() Space {
	// cos θ, sin θ, θ̇
	return Space{
		Dim:  3,
		Low:  []float64{-1, -1, -pdMaxSpeed},
		High: []float64{1, 1, pdMaxSpeed},
	}
}

func (p *Pendulum) ActionSpace() Space {
	return Space{Dim: 1, Low: []float64{-pdMaxTorque}, High: []float64{pdMaxTorque}}
}

func (p *Pendulum) Reset(seed *int64) ([]float64, Info, error) {
	if seed != nil {
		p.rng = rand.New(rand.NewSource(*seed))
	}
	p.theta = -math.Pi + 2*math.Pi*p.rng.Float64()
	p.thetaDot = -1 + 2*p.rng.Float64()
	p.steps = 0
	p.started = true
	return p.observation(), Info{}, nil
}

func (p *Pendulum) Step(action Action) (Step, error) {
	if !p.started {
		return Step{}, errors.New("pendulum: step before reset")
	}
	if len(action.Values) != 1 {
		return Step{}, errors.New("pendulum: action must hold exactly one torque value")
	}
	u := clamp(action.Values[0], -pdMaxTorque, pdMaxTorque)

	th := normalizeAngle(p.theta)
	cost := th*th + 0.1*p.thetaDot*p.thetaDot + 0.001*u*u

	p.thetaDot += (3*pdGravity/(2*pdLength)*math.Sin(p.theta) + 3/(pdMass*pdLength*pdLength)*u) * pdDt
	p.thetaDot = clamp(p.thetaDot, -pdMaxSpeed, pdMaxSpeed)
	p.theta += p.thetaDot * pdDt
	p.steps++

	return Step{
		Observation: p.observation(),
		Reward:      -cost,
		Truncated:   p.MaxSteps > 0 && p.steps >= p.MaxSteps,
		Info:        Info{"steps": p.steps},
	}, nil
}

func (p *Pendulum) Close() error {
	return nil
}

func (p *Pendulum) observation() []float64 {
	return []float64{math.Cos(p.theta), math.Sin(p.theta), p.thetaDot}
}

func normalizeAngle(x float64) float64 {
	return math.Mod(math.Mod(x+math.Pi, 2*math.Pi)+2*math.Pi, 2*math.Pi) - math.Pi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
