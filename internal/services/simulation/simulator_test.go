package simulation

import (
	"testing"
	"time"

	"payflow/internal/config"
	"payflow/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTestModeForcesOutcome(t *testing.T) {
	sim := NewFromConfig(config.Gateway{
		TestMode:            true,
		TestPaymentSuccess:  false,
		TestProcessingDelay: 250 * time.Millisecond,
	})

	assert.Equal(t, 250*time.Millisecond, sim.PaymentDelay())
	for i := 0; i < 50; i++ {
		assert.False(t, sim.PaymentOutcome(models.MethodUPI))
		assert.False(t, sim.PaymentOutcome(models.MethodCard))
	}
}

func TestDelaysStayWithinConfiguredRange(t *testing.T) {
	cfg := config.Gateway{
		ProcessingDelayMin: 5 * time.Second,
		ProcessingDelayMax: 10 * time.Second,
		RefundDelayMin:     3 * time.Second,
		RefundDelayMax:     5 * time.Second,
	}
	sim := NewFromConfig(cfg)

	for i := 0; i < 200; i++ {
		d := sim.PaymentDelay()
		assert.GreaterOrEqual(t, d, cfg.ProcessingDelayMin)
		assert.Less(t, d, cfg.ProcessingDelayMax)

		r := sim.RefundDelay()
		assert.GreaterOrEqual(t, r, cfg.RefundDelayMin)
		assert.Less(t, r, cfg.RefundDelayMax)
	}
}

func TestOutcomeRespectsExtremeRates(t *testing.T) {
	always := NewFromConfig(config.Gateway{UPISuccessRate: 1.0, CardSuccessRate: 1.0})
	never := NewFromConfig(config.Gateway{UPISuccessRate: 0.0, CardSuccessRate: 0.0})

	for i := 0; i < 100; i++ {
		assert.True(t, always.PaymentOutcome(models.MethodUPI))
		assert.True(t, always.PaymentOutcome(models.MethodCard))
		assert.False(t, never.PaymentOutcome(models.MethodUPI))
		assert.False(t, never.PaymentOutcome(models.MethodCard))
	}
}
