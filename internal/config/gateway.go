package config

import "time"

// Gateway holds the simulation and delivery knobs for the async core.
// It is read once at startup and injected into the services that need it.
type Gateway struct {
	// Test-mode overrides. When TestMode is true the processors use
	// TestProcessingDelay and TestPaymentSuccess instead of the random
	// strategies below.
	TestMode            bool
	TestPaymentSuccess  bool
	TestProcessingDelay time.Duration

	// Per-method success probabilities for the simulated acquiring network.
	UPISuccessRate  float64
	CardSuccessRate float64

	// Simulated processing latency ranges.
	ProcessingDelayMin time.Duration
	ProcessingDelayMax time.Duration
	RefundDelayMin     time.Duration
	RefundDelayMax     time.Duration

	// WebhookTestIntervals selects the short retry schedule.
	WebhookTestIntervals bool
}

// LoadGateway reads the gateway configuration from the environment,
// using the same variable names and defaults as the hosted simulator.
func LoadGateway() Gateway {
	return Gateway{
		TestMode:            GetBoolEnv("TEST_MODE", false),
		TestPaymentSuccess:  GetBoolEnv("TEST_PAYMENT_SUCCESS", true),
		TestProcessingDelay: time.Duration(GetIntEnv("TEST_PROCESSING_DELAY", 1000)) * time.Millisecond,

		UPISuccessRate:  GetFloatEnv("UPI_SUCCESS_RATE", 0.90),
		CardSuccessRate: GetFloatEnv("CARD_SUCCESS_RATE", 0.95),

		ProcessingDelayMin: time.Duration(GetIntEnv("PROCESSING_DELAY_MIN", 5000)) * time.Millisecond,
		ProcessingDelayMax: time.Duration(GetIntEnv("PROCESSING_DELAY_MAX", 10000)) * time.Millisecond,
		RefundDelayMin:     time.Duration(GetIntEnv("REFUND_DELAY_MIN", 3000)) * time.Millisecond,
		RefundDelayMax:     time.Duration(GetIntEnv("REFUND_DELAY_MAX", 5000)) * time.Millisecond,

		WebhookTestIntervals: GetBoolEnv("WEBHOOK_RETRY_INTERVALS_TEST", false),
	}
}
