package domain

import (
	"time"

	"github.com/google/uuid"
)

// SignalDomain is the closed set of life domains a signal can originate from.
type SignalDomain string

const (
	DomainJournal   SignalDomain = "journal"
	DomainTasks     SignalDomain = "tasks"
	DomainLocation  SignalDomain = "location"
	DomainStressors SignalDomain = "stressors"
	DomainCalendar  SignalDomain = "calendar"
	DomainFood      SignalDomain = "food"
	DomainSocial    SignalDomain = "social"
	DomainHealth    SignalDomain = "health"
	DomainWeather   SignalDomain = "weather"
)

func ValidSignalDomain(d string) bool {
	switch SignalDomain(d) {
	case DomainJournal, DomainTasks, DomainLocation, DomainStressors,
		DomainCalendar, DomainFood, DomainSocial, DomainHealth, DomainWeather:
		return true
	}
	return false
}

// SignalType is the closed set of event types.
// Domain/type pairs are deliberately not cross-validated: any type may appear
// under any domain, so a wearable can report mood under health just as the
// journal does under journal.
type SignalType string

const (
	SignalMood            SignalType = "mood"
	SignalEnergy          SignalType = "energy"
	SignalTaskCompleted   SignalType = "task_completed"
	SignalTaskCreated     SignalType = "task_created"
	SignalLocationChange  SignalType = "location_change"
	SignalStressorTrigger SignalType = "stressor_triggered"
	SignalMeeting         SignalType = "meeting"
	SignalMeal            SignalType = "meal"
	SignalSleep           SignalType = "sleep"
	SignalInteraction     SignalType = "interaction"
	SignalWeatherChange   SignalType = "weather_change"
)

func ValidSignalType(t string) bool {
	switch SignalType(t) {
	case SignalMood, SignalEnergy, SignalTaskCompleted, SignalTaskCreated,
		SignalLocationChange, SignalStressorTrigger, SignalMeeting,
		SignalMeal, SignalSleep, SignalInteraction, SignalWeatherChange:
		return true
	}
	return false
}

// Signal is an immutable, normalized behavioral event. Created once by a
// domain collaborator, never mutated or deleted by this service.
type Signal struct {
	ID        uuid.UUID      `json:"id"`
	Domain    SignalDomain   `json:"domain"`
	Type      SignalType     `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ValueNum  *float64       `json:"value_num,omitempty"`
	ValueText string         `json:"value_text,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	SourceID  string         `json:"source_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ParseSignalTimestamp accepts RFC 3339 timestamps or bare dates.
func ParseSignalTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

// SignalFilter narrows a signal query. Zero values mean "no constraint".
type SignalFilter struct {
	Domain *SignalDomain
	Type   *SignalType
	Since  *time.Time
	Until  *time.Time
	Limit  int
}
