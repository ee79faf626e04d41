// Package simulation provides the pluggable outcome and latency strategies
// for the simulated acquiring network.
package simulation

import (
	"math/rand"
	"time"

	"payflow/internal/config"
	"payflow/internal/models"
)

// Simulator decides how long a simulated transaction takes and whether it
// succeeds. Processors never draw randomness themselves, so deterministic
// strategies can be swapped in for tests.
type Simulator interface {
	PaymentDelay() time.Duration
	RefundDelay() time.Duration
	PaymentOutcome(method string) bool
}

// gateway draws delays uniformly from the configured ranges and outcomes
// from per-method Bernoulli rates. In test mode payment delay and outcome
// are forced to the configured values.
type gateway struct {
	cfg config.Gateway
}

// NewFromConfig builds the simulator the processors run with in
// production and test mode alike.
func NewFromConfig(cfg config.Gateway) Simulator {
	return &gateway{cfg: cfg}
}

func (g *gateway) PaymentDelay() time.Duration {
	if g.cfg.TestMode {
		return g.cfg.TestProcessingDelay
	}
	return uniform(g.cfg.ProcessingDelayMin, g.cfg.ProcessingDelayMax)
}

func (g *gateway) RefundDelay() time.Duration {
	return uniform(g.cfg.RefundDelayMin, g.cfg.RefundDelayMax)
}

func (g *gateway) PaymentOutcome(method string) bool {
	if g.cfg.TestMode {
		return g.cfg.TestPaymentSuccess
	}
	rate := g.cfg.CardSuccessRate
	if method == models.MethodUPI {
		rate = g.cfg.UPISuccessRate
	}
	return rand.Float64() < rate
}

func uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Fixed is a fully deterministic simulator for tests.
type Fixed struct {
	Delay   time.Duration
	Success bool
}

func (f Fixed) PaymentDelay() time.Duration       { return f.Delay }
func (f Fixed) RefundDelay() time.Duration        { return f.Delay }
func (f Fixed) PaymentOutcome(method string) bool { return f.Success }
