package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/guard"
	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

var ErrCorruptSession = errors.New("persisted session is corrupt")

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The anomaly is never
// written; it is derived again from the day and roster on load.
type PersistedSessionData struct {
	ID             string                 `json:"id"`
	ScenarioID     string                 `json:"scenario_id"`
	Scenario       *engine.Scenario       `json:"scenario"`
	Day            int                    `json:"day"`
	Scene          service.Scene          `json:"scene"`
	PlayerGuess    string                 `json:"player_guess,omitempty"`
	DropoffOrder   []string               `json:"dropoff_order"`
	Cursor         int                    `json:"cursor"`
	Stats          service.Stats          `json:"stats"`
	LastDay        *service.DayResolution `json:"last_day,omitempty"`
	Message        string                 `json:"message,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
}

// newPersistedData captures the parts of a session needed to rebuild it
func newPersistedData(session *service.Session) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             session.ID,
		ScenarioID:     session.ScenarioID,
		Scenario:       session.Scenario,
		Day:            session.Run.Day,
		Scene:          session.Scene,
		PlayerGuess:    session.Run.PlayerGuess,
		DropoffOrder:   append([]string{}, session.Run.DropoffOrder...),
		Cursor:         session.Cursor,
		Stats:          session.Stats,
		LastDay:        session.LastDay,
		Message:        session.Message,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
	}
}

// toSession rebuilds the session. The guard starts idle.
func (d *PersistedSessionData) toSession(opts ...guard.Option) (*service.Session, error) {
	if d.Scenario == nil {
		return nil, fmt.Errorf("%w: session %s has no scenario", ErrCorruptSession, d.ID)
	}
	if !d.Scene.IsValid() {
		return nil, fmt.Errorf("%w: session %s has unknown scene %q", ErrCorruptSession, d.ID, d.Scene)
	}

	run, err := engine.RestoreRunState(d.Day, d.Scenario.Passengers, d.PlayerGuess, d.DropoffOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s: %v", ErrCorruptSession, d.ID, err)
	}
	if d.Cursor < 0 || d.Cursor > len(run.DropoffOrder) {
		return nil, fmt.Errorf("%w: session %s cursor %d out of range", ErrCorruptSession, d.ID, d.Cursor)
	}

	return &service.Session{
		ID:             d.ID,
		ScenarioID:     d.ScenarioID,
		Scenario:       d.Scenario,
		Run:            run,
		Guard:          guard.New(opts...),
		Scene:          d.Scene,
		SceneData:      d.Day,
		Cursor:         d.Cursor,
		Stats:          d.Stats,
		LastDay:        d.LastDay,
		Message:        d.Message,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}, nil
}

func encodeSession(session *service.Session) ([]byte, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	data, err := json.MarshalIndent(newPersistedData(session), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return data, nil
}

func decodeSession(raw []byte) (*service.Session, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return data.toSession()
}
