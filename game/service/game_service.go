package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/guard"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, scenarioName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Scene Flow
	Advance(ctx context.Context, sessionID string) (*TransitionResult, error)
	Accuse(ctx context.Context, sessionID, passengerID string) (*AccuseResult, error)
	Interrogate(ctx context.Context, sessionID, passengerID string) (*InterrogateResult, error)
	Dropoff(ctx context.Context, sessionID string) (*DropoffResult, error)
	CompleteTransition(ctx context.Context, sessionID string) (*RunView, error)
	ResetGuard(ctx context.Context, sessionID string) (*RunView, error)

	// Game State
	GetRunView(ctx context.Context, sessionID string) (*RunView, error)

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	LoadScenario(ctx context.Context, scenarioName string) (*engine.Scenario, error)
	SaveScenario(ctx context.Context, scenarioName string, scenario *engine.Scenario) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, scenarioID string, scenario *engine.Scenario) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, scenarioID string, scenario *engine.Scenario) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles scenario loading
type ConfigManager interface {
	LoadScenario(name string) (*engine.Scenario, error)
	ListScenarios() ([]*ScenarioInfo, error)
	GetDefault() *engine.Scenario
	DefaultName() string
	SaveScenario(name string, scenario *engine.Scenario) error
}

// Session is one playthrough: a single live RunState, the game's transition
// guard and the scene the player is in.
type Session struct {
	ID         string
	ScenarioID string
	Scenario   *engine.Scenario
	Run        *engine.RunState
	Guard      *guard.TransitionGuard
	Scene      Scene
	SceneData  any
	Cursor     int
	Stats      Stats
	LastDay    *DayResolution
	Message    string

	CreatedAt      time.Time
	LastAccessedAt time.Time

	pendingDone func()
}

// NewSession starts a playthrough on day 1 at the day splash
func NewSession(id, scenarioID string, scenario *engine.Scenario, opts ...guard.Option) (*Session, error) {
	run, err := engine.NewDay(1, scenario.Passengers)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:             id,
		ScenarioID:     scenarioID,
		Scenario:       scenario,
		Run:            run,
		Guard:          guard.New(opts...),
		Scene:          SceneDaySplash,
		Message:        scenario.Messages.Welcome,
		CreatedAt:      now,
		LastAccessedAt: now,
	}, nil
}

// Start switches the session to target. It implements guard.Navigator.
func (s *Session) Start(target string, data any) {
	s.Scene = Scene(target)
	s.SceneData = data
}

// SetPendingDone stores the completion signal of the transition in flight
func (s *Session) SetPendingDone(done func()) {
	s.pendingDone = done
}

// CompletePending fires and clears the stored completion signal. Returns false
// when no transition was waiting.
func (s *Session) CompletePending() bool {
	if s.pendingDone == nil {
		return false
	}
	done := s.pendingDone
	s.pendingDone = nil
	done()
	return true
}
