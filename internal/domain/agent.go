package domain

import "time"

// Availability is a derived view over the agent's ticket-hold and break
// state. It is never stored.
type Availability string

const (
	AgentAvailable   Availability = "AVAILABLE"
	AgentUnavailable Availability = "UNAVAILABLE"
)

// Shift is a working window in minutes of day. End < Start means the
// window spans midnight.
type Shift struct {
	StartMinute int `json:"start"`
	EndMinute   int `json:"end"`
}

// Contains reports whether the minute-of-day falls inside the shift,
// handling midnight-spanning windows.
func (s Shift) Contains(minute int) bool {
	if s.EndMinute < s.StartMinute {
		return minute >= s.StartMinute || minute < s.EndMinute
	}
	return minute >= s.StartMinute && minute < s.EndMinute
}

// Agent models a support operator.
type Agent struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	AccessLevel  int
	WorkingHours map[time.Weekday]Shift
	Specialties  []string
	TicketID     *string
	OnBreak      bool
	Verified     bool
	TaskIDs      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy that shares no mutable state with the receiver.
func (a Agent) Clone() Agent {
	if a.WorkingHours != nil {
		hours := make(map[time.Weekday]Shift, len(a.WorkingHours))
		for day, shift := range a.WorkingHours {
			hours[day] = shift
		}
		a.WorkingHours = hours
	}
	if a.Specialties != nil {
		a.Specialties = append([]string(nil), a.Specialties...)
	}
	if a.TaskIDs != nil {
		a.TaskIDs = append([]string(nil), a.TaskIDs...)
	}
	if a.TicketID != nil {
		id := *a.TicketID
		a.TicketID = &id
	}
	return a
}

// Availability derives the flag from the two independent causes: holding
// a ticket and being on break.
func (a *Agent) Availability() Availability {
	if a.TicketID == nil && !a.OnBreak {
		return AgentAvailable
	}
	return AgentUnavailable
}

// WorkingAt reports whether t falls inside the agent's configured
// shift. A shift that spans midnight still covers the early hours of
// the following calendar day.
func (a *Agent) WorkingAt(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if shift, ok := a.WorkingHours[t.Weekday()]; ok && shift.Contains(minute) {
		return true
	}
	yesterday := (t.Weekday() + 6) % 7
	if shift, ok := a.WorkingHours[yesterday]; ok && shift.EndMinute < shift.StartMinute && minute < shift.EndMinute {
		return true
	}
	return false
}

// CanViewTriaged gates triaged tickets away from level-1 agents.
func (a *Agent) CanViewTriaged() bool {
	return a.AccessLevel > 1
}
