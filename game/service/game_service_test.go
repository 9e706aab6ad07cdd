package service_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/guard"
	"github.com/wricardo/mcp-training/anomalybus/game/metrics"
	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, scenarioID string, scenario *engine.Scenario) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	// Long timeout so only CompleteTransition unlocks the guard
	session, err := service.NewSession(id, scenarioID, scenario, guard.WithTimeout(time.Hour))
	if err != nil {
		return nil, err
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, scenarioID string, scenario *engine.Scenario) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, scenarioID, scenario)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	m.saves++
	return nil
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	scenarios map[string]*engine.Scenario
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		scenarios: map[string]*engine.Scenario{
			"test": createTestScenario(),
		},
	}
}

func (m *MockConfigManager) LoadScenario(name string) (*engine.Scenario, error) {
	scenario, exists := m.scenarios[name]
	if !exists {
		return nil, errors.New("scenario not found")
	}
	return scenario, nil
}

func (m *MockConfigManager) ListScenarios() ([]*service.ScenarioInfo, error) {
	var result []*service.ScenarioInfo
	for name, scenario := range m.scenarios {
		result = append(result, &service.ScenarioInfo{
			Filename:       name + ".json",
			ScenarioID:     name,
			Name:           scenario.Name,
			Description:    scenario.Description,
			PassengerCount: len(scenario.Passengers),
			StopCount:      len(scenario.Stops),
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.Scenario {
	return m.scenarios["test"]
}

func (m *MockConfigManager) DefaultName() string {
	return "test"
}

func (m *MockConfigManager) SaveScenario(name string, scenario *engine.Scenario) error {
	if err := engine.ValidateScenario(scenario); err != nil {
		return err
	}
	m.scenarios[name] = scenario
	return nil
}

// createTestScenario uses roster [A, B, C]: day 1 drops off A, C, B; day 2's
// anomaly is B with order C, B, A; day 3's anomaly is A.
func createTestScenario() *engine.Scenario {
	scenario, err := engine.ParseScenario([]byte(`{
		"name": "Test Route",
		"description": "Three passengers",
		"stops": [{"id": "s1", "name": "Stop One"}, {"id": "s2", "name": "Stop Two"}],
		"passengers": [
			{"id": "A", "displayName": "Ann", "seatIndex": 0, "stopId": "s1"},
			{"id": "B", "displayName": "Ben", "seatIndex": 1, "stopId": "s1"},
			{"id": "C", "displayName": "Cat", "seatIndex": 2, "stopId": "s2"}
		],
		"messages": {"welcome": "Welcome!", "death": "Game over."}
	}`))
	if err != nil {
		panic(err)
	}
	return scenario
}

func newTestService(t *testing.T) (service.GameService, *MockSessionManager, string) {
	t.Helper()
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager(), service.WithMetrics(metrics.New()))
	info, err := svc.CreateSession(context.Background(), "test")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, sessions, info.ID
}

// advance runs Advance and completes the transition
func advance(t *testing.T, svc service.GameService, id string, want service.Scene) {
	t.Helper()
	ctx := context.Background()
	result, err := svc.Advance(ctx, id)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if result.Ignored || result.To != want {
		t.Fatalf("Expected transition to %s, got %+v", want, result)
	}
	if _, err := svc.CompleteTransition(ctx, id); err != nil {
		t.Fatalf("CompleteTransition failed: %v", err)
	}
}

func accuse(t *testing.T, svc service.GameService, id, passenger string) *service.AccuseResult {
	t.Helper()
	ctx := context.Background()
	result, err := svc.Accuse(ctx, id, passenger)
	if err != nil {
		t.Fatalf("Accuse failed: %v", err)
	}
	if result.Ignored {
		t.Fatal("Expected accusation to run")
	}
	if _, err := svc.CompleteTransition(ctx, id); err != nil {
		t.Fatalf("CompleteTransition failed: %v", err)
	}
	return result
}

// finishDropoff calls Dropoff until the day resolves
func finishDropoff(t *testing.T, svc service.GameService, id string) ([]string, *service.DropoffResult) {
	t.Helper()
	ctx := context.Background()
	var dropped []string
	for i := 0; i < 10; i++ {
		result, err := svc.Dropoff(ctx, id)
		if err != nil {
			t.Fatalf("Dropoff failed: %v", err)
		}
		if result.Resolved {
			svc.CompleteTransition(ctx, id)
			return dropped, result
		}
		dropped = append(dropped, result.Passenger)
	}
	t.Fatal("Day never resolved")
	return nil, nil
}

// playDay plays one full day with the given accusation
func playDay(t *testing.T, svc service.GameService, id, guess string) ([]string, *service.DropoffResult) {
	t.Helper()
	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)
	accuse(t, svc, id, guess)
	advance(t, svc, id, service.SceneDropoff)
	return finishDropoff(t, svc, id)
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	t.Run("named scenario", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "test")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ScenarioID != "test" || info.ScenarioName != "Test Route" {
			t.Errorf("Unexpected scenario info: %+v", info)
		}
		view := info.View
		if view.Day != 1 || view.Scene != service.SceneDaySplash {
			t.Errorf("Expected day 1 at day_splash, got day %d at %s", view.Day, view.Scene)
		}
		if !view.TutorialDay || view.Headline != "Tutorial Day - No Anomalies" {
			t.Errorf("Expected tutorial headline, got %q", view.Headline)
		}
		if view.Message != "Welcome!" {
			t.Errorf("Expected welcome message, got %q", view.Message)
		}
		if !reflect.DeepEqual(view.DropoffOrder, []string{"A", "C", "B"}) {
			t.Errorf("Expected day 1 order [A C B], got %v", view.DropoffOrder)
		}
	})

	t.Run("default scenario", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ScenarioID != "test" {
			t.Errorf("Expected default scenario id 'test', got %q", info.ScenarioID)
		}
	})

	t.Run("unknown scenario", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "missing")
		if err == nil || !strings.Contains(err.Error(), "Available scenarios") {
			t.Errorf("Expected helpful not found error, got %v", err)
		}
	})
}

func TestGameService_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	if _, err := svc.GetRunView(ctx, "nope"); err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected session not found, got %v", err)
	}
	if _, err := svc.Advance(ctx, "nope"); err == nil {
		t.Error("Expected error advancing unknown session")
	}
	if err := svc.DeleteSession(ctx, "nope"); err == nil {
		t.Error("Expected error deleting unknown session")
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	svc.CreateSession(ctx, "test")

	sessions, err := svc.ListSessions(ctx)
	if err != nil || len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d (%v)", len(sessions), err)
	}

	if err := svc.DeleteSession(ctx, id); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := svc.GetSession(ctx, id); err == nil {
		t.Error("Expected deleted session to be gone")
	}
}

func TestGameService_TutorialDay(t *testing.T) {
	svc, _, id := newTestService(t)

	dropped, result := playDay(t, svc, id, engine.NoAnomalyGuess)
	if !reflect.DeepEqual(dropped, []string{"A", "C", "B"}) {
		t.Errorf("Expected dropoffs [A C B], got %v", dropped)
	}
	res := result.Resolution
	if !res.Correct || res.Outcome != engine.OutcomeAdvance || res.NextDay != 2 {
		t.Errorf("Unexpected resolution: %+v", res)
	}

	view := result.View
	if view.Day != 2 || view.Scene != service.SceneDaySplash {
		t.Errorf("Expected day 2 at day_splash, got day %d at %s", view.Day, view.Scene)
	}
	if view.Stats.DaysCleared != 1 {
		t.Errorf("Expected 1 day cleared, got %d", view.Stats.DaysCleared)
	}
	if view.PlayerGuess != "" {
		t.Error("Expected the new day to start without a guess")
	}
	if !reflect.DeepEqual(view.DropoffOrder, []string{"C", "B", "A"}) {
		t.Errorf("Expected fresh day 2 order [C B A], got %v", view.DropoffOrder)
	}
}

func TestGameService_TutorialDayRejectsAccusation(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)

	for _, passenger := range []string{"A", "B", "C"} {
		if _, err := svc.Accuse(ctx, id, passenger); !errors.Is(err, service.ErrTutorialDay) {
			t.Errorf("Expected ErrTutorialDay accusing %s on day 1, got %v", passenger, err)
		}
	}

	view, err := svc.GetRunView(ctx, id)
	if err != nil {
		t.Fatalf("GetRunView failed: %v", err)
	}
	if view.Scene != service.SceneInvestigation || view.InTransition || view.PlayerGuess != "" {
		t.Errorf("Expected rejected accusations to leave investigation untouched, got %+v", view)
	}

	// NONE is still accepted and the day clears as usual
	accuse(t, svc, id, engine.NoAnomalyGuess)
	advance(t, svc, id, service.SceneDropoff)
	_, result := finishDropoff(t, svc, id)
	if result.Resolution.Outcome != engine.OutcomeAdvance || result.View.Stats.Deaths != 0 {
		t.Errorf("Expected day 1 to clear, got %+v", result.Resolution)
	}
}

func TestGameService_Interrogate(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	if _, err := svc.Interrogate(ctx, id, "A"); !errors.Is(err, service.ErrWrongScene) {
		t.Errorf("Expected ErrWrongScene at day_splash, got %v", err)
	}

	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)
	for _, passenger := range []string{"A", "B", "C"} {
		answer, err := svc.Interrogate(ctx, id, passenger)
		if err != nil {
			t.Fatalf("Interrogate failed: %v", err)
		}
		if answer.Dialogue != service.DialogueNormal {
			t.Errorf("Expected %s to talk normally on day 1, got %s", passenger, answer.Dialogue)
		}
	}
	accuse(t, svc, id, engine.NoAnomalyGuess)
	advance(t, svc, id, service.SceneDropoff)
	finishDropoff(t, svc, id)

	// day 2's anomaly is B
	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)

	tests := []struct {
		passenger string
		name      string
		dialogue  string
	}{
		{"A", "Ann", service.DialogueNormal},
		{"B", "Ben", service.DialogueAnomaly},
		{"C", "Cat", service.DialogueNormal},
	}
	for _, tt := range tests {
		answer, err := svc.Interrogate(ctx, id, tt.passenger)
		if err != nil {
			t.Fatalf("Interrogate failed: %v", err)
		}
		if answer.Dialogue != tt.dialogue || answer.DisplayName != tt.name {
			t.Errorf("Expected %s (%s) to answer %s, got %+v", tt.passenger, tt.name, tt.dialogue, answer)
		}
		if answer.View.AnomalyID != "" || answer.View.InTransition || answer.View.Scene != service.SceneInvestigation {
			t.Errorf("Expected interrogation to leave the view alone, got %+v", answer.View)
		}
	}

	if _, err := svc.Interrogate(ctx, id, "Z"); !errors.Is(err, service.ErrUnknownPassenger) {
		t.Errorf("Expected ErrUnknownPassenger, got %v", err)
	}
}

// TestGameService_ViewDeterminesAnomaly pins that the hidden anomaly can be
// recomputed from a view: day generation is a public, deterministic contract
func TestGameService_ViewDeterminesAnomaly(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	playDay(t, svc, id, engine.NoAnomalyGuess)
	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)

	view, err := svc.GetRunView(ctx, id)
	if err != nil {
		t.Fatalf("GetRunView failed: %v", err)
	}
	if view.AnomalyID != "" {
		t.Fatal("Expected anomaly to be hidden during investigation")
	}
	if view.Seed != engine.DaySeed(view.Day) {
		t.Errorf("Expected seed %d for day %d, got %d", engine.DaySeed(view.Day), view.Day, view.Seed)
	}

	rs, err := engine.NewDay(view.Day, view.Passengers)
	if err != nil {
		t.Fatalf("Failed to derive day %d: %v", view.Day, err)
	}
	result := accuse(t, svc, id, rs.AnomalyID)
	if result.View.AnomalyID != rs.AnomalyID {
		t.Errorf("Expected derived anomaly %s to be caught, got %+v", rs.AnomalyID, result)
	}
}

func TestGameService_CorrectAccusation(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	playDay(t, svc, id, engine.NoAnomalyGuess)

	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)

	view, _ := svc.GetRunView(ctx, id)
	if view.AnomalyID != "" {
		t.Fatal("Expected anomaly to be hidden during investigation")
	}

	result := accuse(t, svc, id, "B")
	if result.Reveal != "Ben was the anomaly!" {
		t.Errorf("Expected caught reveal, got %q", result.Reveal)
	}
	if result.View.AnomalyID != "B" {
		t.Errorf("Expected caught anomaly to be visible, got %q", result.View.AnomalyID)
	}

	advance(t, svc, id, service.SceneDropoff)
	view, _ = svc.GetRunView(ctx, id)
	if !reflect.DeepEqual(view.DropoffOrder, []string{"C", "A"}) {
		t.Errorf("Expected accused passenger removed, got %v", view.DropoffOrder)
	}

	dropped, final := finishDropoff(t, svc, id)
	if !reflect.DeepEqual(dropped, []string{"C", "A"}) {
		t.Errorf("Expected dropoffs [C A], got %v", dropped)
	}
	if final.Resolution.Outcome != engine.OutcomeAdvance || final.View.Day != 3 {
		t.Errorf("Expected advance to day 3, got %+v", final.Resolution)
	}
	if final.Resolution.AnomalyID != "B" {
		t.Errorf("Expected resolution to reveal B, got %q", final.Resolution.AnomalyID)
	}
}

func TestGameService_WrongAccusationSkipsAnomaly(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	playDay(t, svc, id, engine.NoAnomalyGuess)

	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)
	result := accuse(t, svc, id, "A")
	if result.Reveal != "Ann was innocent!" {
		t.Errorf("Expected innocent reveal, got %q", result.Reveal)
	}
	if result.View.AnomalyID != "" {
		t.Error("Expected anomaly to stay hidden after a wrong guess")
	}
	advance(t, svc, id, service.SceneDropoff)

	first, err := svc.Dropoff(ctx, id)
	if err != nil {
		t.Fatalf("Dropoff failed: %v", err)
	}
	if first.Passenger != "C" || first.Remaining != 0 {
		t.Errorf("Expected C off with nobody else due, got %+v", first)
	}

	final, err := svc.Dropoff(ctx, id)
	if err != nil {
		t.Fatalf("Dropoff failed: %v", err)
	}
	if !reflect.DeepEqual(final.Skipped, []string{"B"}) {
		t.Errorf("Expected anomaly B skipped, got %v", final.Skipped)
	}
	if !final.Resolved || final.Resolution.Outcome != engine.OutcomeReset {
		t.Fatalf("Expected the day to resolve as a reset, got %+v", final)
	}
	if !strings.HasPrefix(final.Resolution.Message, "Ben reveals their true nature") {
		t.Errorf("Expected anomaly reveal in death message, got %q", final.Resolution.Message)
	}
	if final.View.Day != 1 || final.View.Stats.Deaths != 1 {
		t.Errorf("Expected day 1 with 1 death, got day %d deaths %d", final.View.Day, final.View.Stats.Deaths)
	}
}

func TestGameService_TrustEveryoneOnAnomalyDay(t *testing.T) {
	svc, _, id := newTestService(t)
	playDay(t, svc, id, engine.NoAnomalyGuess)

	dropped, result := playDay(t, svc, id, "none")
	if !reflect.DeepEqual(dropped, []string{"C", "A"}) {
		t.Errorf("Expected anomaly to stay aboard, got dropoffs %v", dropped)
	}
	if result.Resolution.Outcome != engine.OutcomeReset {
		t.Errorf("Expected reset, got %s", result.Resolution.Outcome)
	}
}

func TestGameService_FullLoop(t *testing.T) {
	svc, _, id := newTestService(t)
	passengers := createTestScenario().Passengers

	var last *service.DropoffResult
	for day := 1; day <= engine.MaxDay; day++ {
		rs, err := engine.NewDay(day, passengers)
		if err != nil {
			t.Fatalf("Failed to derive day %d: %v", day, err)
		}
		guess := engine.NoAnomalyGuess
		if rs.HasAnomaly() {
			guess = rs.AnomalyID
		}
		_, last = playDay(t, svc, id, guess)
	}

	if last.Resolution.Outcome != engine.OutcomeCompleted || last.View.Day != 1 {
		t.Errorf("Expected loop completion back to day 1, got %+v", last.Resolution)
	}
	stats := last.View.Stats
	if stats.DaysCleared != engine.MaxDay || stats.LoopsCompleted != 1 || stats.Deaths != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestGameService_GuardDropsRapidTriggers(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	first, err := svc.Advance(ctx, id)
	if err != nil || first.Ignored {
		t.Fatalf("Expected first advance to run, got %+v (%v)", first, err)
	}
	if !first.View.InTransition {
		t.Error("Expected view to report the transition in flight")
	}

	second, err := svc.Advance(ctx, id)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if !second.Ignored || second.To != service.ScenePickup {
		t.Errorf("Expected second advance to be ignored in pickup, got %+v", second)
	}
	if second.Events[0].Type != "ignored" {
		t.Errorf("Expected ignored event, got %+v", second.Events)
	}

	svc.CompleteTransition(ctx, id)
	third, _ := svc.Advance(ctx, id)
	if third.Ignored || third.To != service.SceneInvestigation {
		t.Errorf("Expected advance after completion to reach investigation, got %+v", third)
	}
}

func TestGameService_IgnoredAccusationChangesNothing(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	advance(t, svc, id, service.ScenePickup)

	// enter investigation but leave the transition in flight
	svc.Advance(ctx, id)

	result, err := svc.Accuse(ctx, id, engine.NoAnomalyGuess)
	if err != nil {
		t.Fatalf("Accuse failed: %v", err)
	}
	if !result.Ignored || result.Reveal != "" {
		t.Errorf("Expected ignored accusation without reveal, got %+v", result)
	}
	if result.View.PlayerGuess != "" || result.View.Scene != service.SceneInvestigation {
		t.Errorf("Expected no guess recorded, got %+v", result.View)
	}
}

func TestGameService_IgnoredResolution(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)
	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)
	accuse(t, svc, id, engine.NoAnomalyGuess)

	// enter dropoff without completing the transition
	svc.Advance(ctx, id)
	for i := 0; i < 3; i++ {
		if _, err := svc.Dropoff(ctx, id); err != nil {
			t.Fatalf("Dropoff failed: %v", err)
		}
	}

	blocked, err := svc.Dropoff(ctx, id)
	if err != nil {
		t.Fatalf("Dropoff failed: %v", err)
	}
	if !blocked.Ignored || blocked.Resolved || blocked.View.Day != 1 {
		t.Errorf("Expected resolution to be ignored while locked, got %+v", blocked)
	}

	svc.CompleteTransition(ctx, id)
	resolved, _ := svc.Dropoff(ctx, id)
	if !resolved.Resolved || resolved.View.Day != 2 {
		t.Errorf("Expected resolution after completion, got %+v", resolved)
	}
}

func TestGameService_ResetGuard(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	svc.Advance(ctx, id)
	view, err := svc.ResetGuard(ctx, id)
	if err != nil {
		t.Fatalf("ResetGuard failed: %v", err)
	}
	if view.InTransition {
		t.Error("Expected guard idle after reset")
	}

	result, _ := svc.Advance(ctx, id)
	if result.Ignored {
		t.Error("Expected advance to run after guard reset")
	}
}

func TestGameService_SceneErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, id := newTestService(t)

	if _, err := svc.Accuse(ctx, id, "A"); !errors.Is(err, service.ErrWrongScene) {
		t.Errorf("Expected ErrWrongScene for accuse at day_splash, got %v", err)
	}
	if _, err := svc.Dropoff(ctx, id); !errors.Is(err, service.ErrWrongScene) {
		t.Errorf("Expected ErrWrongScene for dropoff at day_splash, got %v", err)
	}

	advance(t, svc, id, service.ScenePickup)
	advance(t, svc, id, service.SceneInvestigation)

	if _, err := svc.Advance(ctx, id); !errors.Is(err, service.ErrGuessRequired) {
		t.Errorf("Expected ErrGuessRequired, got %v", err)
	}
	if _, err := svc.Accuse(ctx, id, "Z"); !errors.Is(err, service.ErrUnknownPassenger) {
		t.Errorf("Expected ErrUnknownPassenger, got %v", err)
	}
	if _, err := svc.Accuse(ctx, id, " "); !errors.Is(err, service.ErrUnknownPassenger) {
		t.Errorf("Expected ErrUnknownPassenger for blank id, got %v", err)
	}

	accuse(t, svc, id, engine.NoAnomalyGuess)
	advance(t, svc, id, service.SceneDropoff)
	if _, err := svc.Advance(ctx, id); !errors.Is(err, service.ErrUseDropoff) {
		t.Errorf("Expected ErrUseDropoff, got %v", err)
	}
}

func TestGameService_Persists(t *testing.T) {
	svc, sessions, id := newTestService(t)
	advance(t, svc, id, service.ScenePickup)
	if sessions.saves == 0 {
		t.Error("Expected session to be saved after a transition")
	}
}

func TestGameService_Scenarios(t *testing.T) {
	ctx := context.Background()
	svc := service.NewGameService(NewMockSessionManager(), NewMockConfigManager())

	list, err := svc.ListScenarios(ctx)
	if err != nil || len(list) != 1 || list[0].PassengerCount != 3 {
		t.Fatalf("Unexpected scenario list %+v (%v)", list, err)
	}

	scenario, err := svc.LoadScenario(ctx, "test")
	if err != nil || scenario.Name != "Test Route" {
		t.Fatalf("Failed to load scenario: %v", err)
	}

	bad := *scenario
	bad.Name = ""
	if err := svc.SaveScenario(ctx, "bad", &bad); err == nil {
		t.Error("Expected invalid scenario to be rejected")
	}
	if err := svc.SaveScenario(ctx, "copy", scenario); err != nil {
		t.Errorf("Failed to save scenario: %v", err)
	}
}
