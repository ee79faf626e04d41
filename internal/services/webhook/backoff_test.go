package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDelay(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		attempt  int
		want     time.Duration
	}{
		{"first attempt is immediate", ProductionSchedule, 1, 0},
		{"second attempt", ProductionSchedule, 2, 60 * time.Second},
		{"third attempt", ProductionSchedule, 3, 300 * time.Second},
		{"fourth attempt", ProductionSchedule, 4, 1800 * time.Second},
		{"fifth attempt", ProductionSchedule, 5, 7200 * time.Second},
		{"beyond schedule clamps to last", ProductionSchedule, 6, 7200 * time.Second},
		{"way beyond schedule clamps to last", ProductionSchedule, 100, 7200 * time.Second},
		{"zero attempt", ProductionSchedule, 0, 0},
		{"negative attempt", ProductionSchedule, -3, 0},
		{"test schedule second attempt", TestSchedule, 2, 5 * time.Second},
		{"test schedule clamps", TestSchedule, 9, 20 * time.Second},
		{"empty schedule", Schedule{}, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schedule.Delay(tt.attempt))
		})
	}
}

func TestScheduleFor(t *testing.T) {
	assert.Equal(t, TestSchedule, ScheduleFor(true))
	assert.Equal(t, ProductionSchedule, ScheduleFor(false))
}
