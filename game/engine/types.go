package engine

import "errors"

const (
	// BaseSeed is added to the day number to derive each day's seed.
	// Changing it changes every day's anomaly and dropoff order.
	BaseSeed uint32 = 12345

	// NoAnomalyGuess is the guess a player makes to assert nobody is the anomaly.
	NoAnomalyGuess = "NONE"

	// MaxDay is the last day of a loop; clearing it wraps back to day 1.
	MaxDay = 6

	// Validation constants
	MinPassengers    = 1
	MaxPassengers    = 32
	MaxCorruption    = 6
	MaxDisplayLength = 64
)

var (
	ErrInvalidDay          = errors.New("day must be >= 1")
	ErrAlreadyInitialized  = errors.New("run state already initialized")
	ErrNotInitialized      = errors.New("run state not initialized")
	ErrEmptyRoster         = errors.New("roster is empty; an anomaly day needs at least one passenger")
	ErrEmptyPassengerID    = errors.New("passenger id is empty")
	ErrDuplicatePassenger  = errors.New("duplicate passenger id")
	ErrReservedPassengerID = errors.New("passenger id is reserved")
	ErrDropoffMismatch     = errors.New("dropoff order does not match roster")
)

// Passenger is a roster entry. The engine never mutates passengers; seat and
// stop fields are carried for presentation clients.
type Passenger struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	SeatIndex   int    `json:"seatIndex"`
	StopID      string `json:"stopId"`
}

// Stop is a pickup location on the route
type Stop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Outcome describes how a resolved day moves the day counter
type Outcome string

const (
	OutcomeAdvance   Outcome = "advance"
	OutcomeCompleted Outcome = "completed"
	OutcomeReset     Outcome = "reset"
)

// ScenarioMessages holds the narration lines a scenario supplies to clients
type ScenarioMessages struct {
	Welcome         string `json:"welcome"`
	TutorialDay     string `json:"tutorial_day"`
	AnomalyDay      string `json:"anomaly_day"`
	AnomalyCaught   string `json:"anomaly_caught"`
	InnocentAccused string `json:"innocent_accused"`
	TrustEveryone   string `json:"trust_everyone"`
	AllDropped      string `json:"all_dropped"`
	Death           string `json:"death"`
	Completed       string `json:"completed"`
}

// Scenario is a route with its passenger roster, loaded from JSON
type Scenario struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Stops       []Stop           `json:"stops"`
	Passengers  []Passenger      `json:"passengers"`
	Messages    ScenarioMessages `json:"messages"`
}
