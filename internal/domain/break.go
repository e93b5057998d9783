package domain

import "time"

// BreakRecord is one break taken by an agent. BreakNumber is the ordinal
// within BreakDate's day.
type BreakRecord struct {
	ID          string
	AgentID     string
	BreakDate   time.Time
	BreakNumber int
	BreakStart  time.Time
}

// BreakSettings are process-wide break policy values, mutable by
// administrators and read fresh on every eligibility check.
type BreakSettings struct {
	DurationMinutes int
	DailyFrequency  int
}

// Duration returns the configured break length.
func (s BreakSettings) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
