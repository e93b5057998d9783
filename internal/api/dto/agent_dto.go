package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ShiftPayload is a working window in minutes of day.
type ShiftPayload struct {
	StartMinute int `json:"start"`
	EndMinute   int `json:"end"`
}

// AgentResponse is the agent view with derived availability.
type AgentResponse struct {
	ID           string                  `json:"id"`
	Username     string                  `json:"username"`
	Email        string                  `json:"email"`
	AccessLevel  int                     `json:"access_level"`
	WorkingHours map[string]ShiftPayload `json:"working_hours"`
	Specialties  []string                `json:"specialties"`
	TicketID     *string                 `json:"ticket_id"`
	OnBreak      bool                    `json:"on_break"`
	Availability domain.Availability     `json:"availability"`
	Verified     bool                    `json:"verified"`
	CreatedAt    time.Time               `json:"created_at"`
}

// NewAgentResponse maps the domain agent. Weekday keys use Go's
// English weekday names.
func NewAgentResponse(agent *domain.Agent) AgentResponse {
	hours := make(map[string]ShiftPayload, len(agent.WorkingHours))
	for day, shift := range agent.WorkingHours {
		hours[day.String()] = ShiftPayload{StartMinute: shift.StartMinute, EndMinute: shift.EndMinute}
	}
	return AgentResponse{
		ID:           agent.ID,
		Username:     agent.Username,
		Email:        agent.Email,
		AccessLevel:  agent.AccessLevel,
		WorkingHours: hours,
		Specialties:  agent.Specialties,
		TicketID:     agent.TicketID,
		OnBreak:      agent.OnBreak,
		Availability: agent.Availability(),
		Verified:     agent.Verified,
		CreatedAt:    agent.CreatedAt,
	}
}

// ParseWorkingHours converts weekday-named payload keys to domain
// shifts, rejecting unknown day names.
func ParseWorkingHours(payload map[string]ShiftPayload) (map[time.Weekday]domain.Shift, bool) {
	names := map[string]time.Weekday{
		"Sunday": time.Sunday, "Monday": time.Monday, "Tuesday": time.Tuesday,
		"Wednesday": time.Wednesday, "Thursday": time.Thursday,
		"Friday": time.Friday, "Saturday": time.Saturday,
	}
	hours := make(map[time.Weekday]domain.Shift, len(payload))
	for name, shift := range payload {
		day, ok := names[name]
		if !ok {
			return nil, false
		}
		if shift.StartMinute < 0 || shift.StartMinute >= 1440 || shift.EndMinute < 0 || shift.EndMinute >= 1440 {
			return nil, false
		}
		hours[day] = domain.Shift{StartMinute: shift.StartMinute, EndMinute: shift.EndMinute}
	}
	return hours, true
}

// BreakStatusResponse is the outcome of a break request.
type BreakStatusResponse struct {
	AlreadyOnBreak   bool      `json:"already_on_break"`
	BreakNumber      int       `json:"break_number"`
	StartedAt        time.Time `json:"started_at"`
	EndsAt           time.Time `json:"ends_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

// AvailabilityResponse reports the derived flag.
type AvailabilityResponse struct {
	AgentID      string              `json:"agent_id"`
	Availability domain.Availability `json:"availability"`
}

// BreakSettingsRequest is the admin policy update payload.
type BreakSettingsRequest struct {
	DurationMinutes int `json:"duration_minutes"`
	DailyFrequency  int `json:"daily_frequency"`
}
