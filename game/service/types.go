package service

import (
	"errors"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
)

var (
	ErrGuessRequired    = errors.New("investigation needs an accusation; use accuse")
	ErrUseDropoff       = errors.New("passengers are leaving; use dropoff")
	ErrUnknownPassenger = errors.New("unknown passenger")
	ErrWrongScene       = errors.New("operation not available in this scene")
	ErrTutorialDay      = errors.New("there are no anomalies on the bus today; accuse NONE")
)

// Dialogue variants a passenger can answer with when interrogated
const (
	DialogueNormal  = "normal"
	DialogueAnomaly = "anomaly"
)

// Scene is a step of the day loop
type Scene string

const (
	SceneDaySplash     Scene = "day_splash"
	ScenePickup        Scene = "pickup"
	SceneInvestigation Scene = "investigation"
	SceneDriverReturn  Scene = "driver_return"
	SceneDropoff       Scene = "dropoff"
)

// Stats counts how a playthrough has gone so far
type Stats struct {
	DaysCleared    int `json:"days_cleared"`
	Deaths         int `json:"deaths"`
	LoopsCompleted int `json:"loops_completed"`
}

// DayResolution records how the previous day ended. Once a day resolves its
// anomaly is no longer a secret.
type DayResolution struct {
	Day         int            `json:"day"`
	AnomalyID   string         `json:"anomaly_id,omitempty"`
	PlayerGuess string         `json:"player_guess"`
	Correct     bool           `json:"correct"`
	Outcome     engine.Outcome `json:"outcome"`
	NextDay     int            `json:"next_day"`
	Message     string         `json:"message"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string    `json:"id"`
	ScenarioID     string    `json:"scenario_id"`
	ScenarioName   string    `json:"scenario_name"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	View           *RunView  `json:"view"`
}

// RunView is what a client may see of a session. AnomalyID stays empty until
// the player has caught the anomaly, but that only keeps the view from
// spoiling the day. Day generation is public and deterministic: Seed and the
// roster are enough for engine.NewDay to recompute the anomaly.
type RunView struct {
	SessionID       string             `json:"session_id"`
	ScenarioID      string             `json:"scenario_id"`
	Day             int                `json:"day"`
	Seed            uint32             `json:"seed"`
	Scene           Scene              `json:"scene"`
	TutorialDay     bool               `json:"tutorial_day"`
	Headline        string             `json:"headline"`
	CorruptionLevel int                `json:"corruption_level"`
	Passengers      []engine.Passenger `json:"passengers"`
	DropoffOrder    []string           `json:"dropoff_order"`
	Cursor          int                `json:"cursor"`
	PlayerGuess     string             `json:"player_guess,omitempty"`
	AnomalyID       string             `json:"anomaly_id,omitempty"`
	InTransition    bool               `json:"in_transition"`
	Message         string             `json:"message,omitempty"`
	Stats           Stats              `json:"stats"`
	LastDay         *DayResolution     `json:"last_day,omitempty"`
}

// TransitionResult is returned by guarded scene changes
type TransitionResult struct {
	Ignored bool        `json:"ignored"`
	From    Scene       `json:"from"`
	To      Scene       `json:"to"`
	View    *RunView    `json:"view"`
	Events  []GameEvent `json:"events,omitempty"`
}

// AccuseResult is returned by Accuse
type AccuseResult struct {
	TransitionResult
	Accused string `json:"accused"`
	Reveal  string `json:"reveal,omitempty"`
}

// InterrogateResult is a passenger's answer during investigation. Dialogue is
// the variant key a client uses to pick the passenger's lines.
type InterrogateResult struct {
	PassengerID string   `json:"passenger_id"`
	DisplayName string   `json:"display_name"`
	Dialogue    string   `json:"dialogue"`
	View        *RunView `json:"view"`
}

// DropoffResult is returned by Dropoff. Passenger is empty when the call
// resolved the day instead of letting someone off.
type DropoffResult struct {
	Ignored    bool           `json:"ignored"`
	Passenger  string         `json:"passenger,omitempty"`
	Skipped    []string       `json:"skipped,omitempty"`
	Remaining  int            `json:"remaining"`
	Resolved   bool           `json:"resolved"`
	Resolution *DayResolution `json:"resolution,omitempty"`
	View       *RunView       `json:"view"`
	Events     []GameEvent    `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "transition", "ignored", "accuse", "dropoff", "skip", "day_resolved", "death", "completed"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Scene     Scene     `json:"scene,omitempty"`
}

// ScenarioInfo provides information about a scenario file
type ScenarioInfo struct {
	Filename       string `json:"filename"`
	ScenarioID     string `json:"scenario_id"` // The identifier to use for session creation
	Name           string `json:"name"`
	Description    string `json:"description"`
	PassengerCount int    `json:"passenger_count"`
	StopCount      int    `json:"stop_count"`
}

// IsValid reports whether s is one of the known scenes
func (s Scene) IsValid() bool {
	switch s {
	case SceneDaySplash, ScenePickup, SceneInvestigation, SceneDriverReturn, SceneDropoff:
		return true
	}
	return false
}
