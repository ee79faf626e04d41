package webhook

import "time"

// Schedule is an ordered list of delays between successive delivery
// attempts, indexed by 1-based attempt number and clamped to the last
// entry.
type Schedule []time.Duration

// ProductionSchedule spaces retries out over two hours.
var ProductionSchedule = Schedule{0, 60 * time.Second, 300 * time.Second, 1800 * time.Second, 7200 * time.Second}

// TestSchedule keeps retries short enough for end-to-end tests.
var TestSchedule = Schedule{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}

// Delay returns the wait before the given attempt number.
func (s Schedule) Delay(attempt int) time.Duration {
	if attempt < 1 || len(s) == 0 {
		return 0
	}
	if attempt > len(s) {
		return s[len(s)-1]
	}
	return s[attempt-1]
}

// ScheduleFor selects the retry schedule from configuration.
func ScheduleFor(testIntervals bool) Schedule {
	if testIntervals {
		return TestSchedule
	}
	return ProductionSchedule
}
