package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/metrics"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	metrics  *metrics.Recorder
	mu       sync.RWMutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithMetrics records transitions and outcomes on r
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *gameServiceImpl) {
		s.metrics = r
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session on day 1
func (s *gameServiceImpl) CreateSession(ctx context.Context, scenarioName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scenario *engine.Scenario
	var err error
	scenarioID := scenarioName
	if scenarioName != "" {
		scenario, err = s.configs.LoadScenario(scenarioName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "scenario not found") {
				available, listErr := s.configs.ListScenarios()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, info := range available {
						ids = append(ids, info.ScenarioID)
					}
					return nil, fmt.Errorf("scenario '%s' not found. Available scenarios: %v", scenarioName, ids)
				}
				return nil, fmt.Errorf("scenario '%s' not found. Use /api/scenarios to list available scenarios", scenarioName)
			}
			return nil, fmt.Errorf("failed to load scenario %s: %w", scenarioName, err)
		}
	} else {
		scenario = s.configs.GetDefault()
		scenarioID = s.configs.DefaultName()
	}

	sess, err := s.sessions.Create("", scenarioID, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.metrics.SetActiveSessions(len(s.sessions.List()))
	log.Printf("[SESSION] created session=%s scenario=%s passengers=%d", sess.ID, scenarioID, len(scenario.Passengers))

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	// getSession touches last access, so this is a write
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.metrics.SetActiveSessions(len(s.sessions.List()))
	return nil
}

// Advance moves the session to the next scene for scenes that need no input
func (s *gameServiceImpl) Advance(ctx context.Context, sessionID string) (*TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	run := sess.Run
	var to Scene
	var mutate func() error

	switch sess.Scene {
	case SceneDaySplash:
		to = ScenePickup
		mutate = func() error {
			sess.Message = fmt.Sprintf("%d passengers boarded at %d stops", len(run.Passengers), len(sess.Scenario.Stops))
			return nil
		}
	case ScenePickup:
		to = SceneInvestigation
		mutate = func() error {
			if run.Day == 1 {
				sess.Message = "Day 1: Everyone is innocent - no anomalies today"
			} else {
				sess.Message = "Accuse a passenger, or NONE if you trust everyone"
			}
			return nil
		}
	case SceneInvestigation:
		return nil, ErrGuessRequired
	case SceneDriverReturn:
		to = SceneDropoff
		mutate = func() error {
			if run.PlayerGuess != engine.NoAnomalyGuess {
				run.RemoveFromDropoff(run.PlayerGuess)
			}
			sess.Cursor = 0
			sess.Message = "Starting passenger dropoff..."
			return nil
		}
	case SceneDropoff:
		return nil, ErrUseDropoff
	default:
		return nil, fmt.Errorf("%w: %s", ErrWrongScene, sess.Scene)
	}

	result, err := s.transition(sess, to, mutate)
	if err != nil {
		return nil, err
	}
	s.persist(sess)
	return result, nil
}

// Accuse records the player's guess and moves on to the driver's return.
// passengerID may be a roster id or engine.NoAnomalyGuess. Day 1 has no
// anomaly and only accepts engine.NoAnomalyGuess.
func (s *gameServiceImpl) Accuse(ctx context.Context, sessionID, passengerID string) (*AccuseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Scene != SceneInvestigation {
		return nil, fmt.Errorf("%w: accuse is only allowed during investigation, not %s", ErrWrongScene, sess.Scene)
	}

	run := sess.Run
	msgs := sess.Scenario.Messages
	accused := strings.TrimSpace(passengerID)
	if strings.EqualFold(accused, engine.NoAnomalyGuess) {
		accused = engine.NoAnomalyGuess
	}

	var reveal, kind string
	switch {
	case accused == engine.NoAnomalyGuess:
		kind = "trust"
	case accused == "":
		return nil, fmt.Errorf("%w: passenger id is required", ErrUnknownPassenger)
	default:
		p, ok := run.GetPassenger(accused)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPassenger, accused)
		}
		if run.Day == 1 {
			return nil, ErrTutorialDay
		}
		if run.IsAnomaly(accused) {
			kind = "caught"
			reveal = fmt.Sprintf(msgs.AnomalyCaught, p.DisplayName)
		} else {
			kind = "innocent"
			reveal = fmt.Sprintf(msgs.InnocentAccused, p.DisplayName)
		}
	}

	tr, err := s.transition(sess, SceneDriverReturn, func() error {
		run.SetGuess(accused)
		if reveal != "" {
			sess.Message = reveal
		} else {
			sess.Message = msgs.TrustEveryone
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &AccuseResult{TransitionResult: *tr, Accused: accused}
	if !tr.Ignored {
		result.Reveal = reveal
		s.metrics.Accusation(kind)
		result.Events = append(result.Events, GameEvent{
			Type:      "accuse",
			Message:   sess.Message,
			Timestamp: time.Now(),
			Scene:     SceneInvestigation,
		})
		log.Printf("[ACCUSE] session=%s day=%d accused=%s result=%s", sess.ID, run.Day, accused, kind)
		s.persist(sess)
	}
	return result, nil
}

// Interrogate asks a passenger to talk. It changes no state, so it is not
// guarded and may be called any number of times during investigation.
func (s *gameServiceImpl) Interrogate(ctx context.Context, sessionID, passengerID string) (*InterrogateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Scene != SceneInvestigation {
		return nil, fmt.Errorf("%w: interrogate is only allowed during investigation, not %s", ErrWrongScene, sess.Scene)
	}

	id := strings.TrimSpace(passengerID)
	p, ok := sess.Run.GetPassenger(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPassenger, id)
	}

	dialogue := DialogueNormal
	if sess.Run.IsAnomaly(id) {
		dialogue = DialogueAnomaly
	}
	log.Printf("[INTERROGATE] session=%s day=%d passenger=%s", sess.ID, sess.Run.Day, id)

	return &InterrogateResult{
		PassengerID: p.ID,
		DisplayName: p.DisplayName,
		Dialogue:    dialogue,
		View:        s.buildView(sess),
	}, nil
}

// Dropoff lets the next passenger off. When the guess was wrong the anomaly is
// skipped and stays aboard. Once nobody is left the day is resolved and the
// session returns to the day splash for the next day.
func (s *gameServiceImpl) Dropoff(ctx context.Context, sessionID string) (*DropoffResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Scene != SceneDropoff {
		return nil, fmt.Errorf("%w: dropoff is only allowed during dropoff, not %s", ErrWrongScene, sess.Scene)
	}

	run := sess.Run
	correct := run.IsCorrect()
	result := &DropoffResult{}
	now := time.Now()

	for sess.Cursor < len(run.DropoffOrder) {
		id := run.DropoffOrder[sess.Cursor]
		sess.Cursor++
		if !correct && run.IsAnomaly(id) {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Passenger = id
		break
	}

	for _, skipped := range result.Skipped {
		result.Events = append(result.Events, GameEvent{Type: "skip", Message: skipped + " stays on the bus", Timestamp: now, Scene: SceneDropoff})
	}

	if result.Passenger != "" {
		p, _ := run.GetPassenger(result.Passenger)
		sess.Message = fmt.Sprintf("%s got off the bus", p.DisplayName)
		result.Remaining = s.pendingDropoffs(sess)
		result.Events = append(result.Events, GameEvent{Type: "dropoff", Message: sess.Message, Timestamp: now, Scene: SceneDropoff})
		result.View = s.buildView(sess)
		s.persist(sess)
		return result, nil
	}

	var resolution *DayResolution
	tr, err := s.transition(sess, SceneDaySplash, func() error {
		var resolveErr error
		resolution, resolveErr = s.resolveDay(sess)
		return resolveErr
	})
	if err != nil {
		return nil, err
	}

	result.Ignored = tr.Ignored
	result.View = tr.View
	result.Events = append(result.Events, tr.Events...)
	if !tr.Ignored {
		result.Resolved = true
		result.Resolution = resolution
		kind := "day_resolved"
		switch resolution.Outcome {
		case engine.OutcomeReset:
			kind = "death"
		case engine.OutcomeCompleted:
			kind = "completed"
		}
		result.Events = append(result.Events, GameEvent{Type: kind, Message: resolution.Message, Timestamp: now, Scene: SceneDaySplash})
		s.persist(sess)
	}
	return result, nil
}

// CompleteTransition signals that the client finished presenting the current
// transition, releasing the guard before its timeout
func (s *gameServiceImpl) CompleteTransition(ctx context.Context, sessionID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.CompletePending() {
		log.Printf("[GUARD] session=%s transition into %s completed", sess.ID, sess.Scene)
	}
	return s.buildView(sess), nil
}

// ResetGuard forces the session's guard idle
func (s *gameServiceImpl) ResetGuard(ctx context.Context, sessionID string) (*RunView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Guard.Reset()
	sess.SetPendingDone(nil)
	log.Printf("[GUARD] session=%s guard reset in scene %s", sess.ID, sess.Scene)
	return s.buildView(sess), nil
}

// GetRunView returns the client-visible state of a session
func (s *gameServiceImpl) GetRunView(ctx context.Context, sessionID string) (*RunView, error) {
	// getSession touches last access, so this is a write
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.buildView(sess), nil
}

// ListScenarios returns available scenarios
func (s *gameServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.configs.ListScenarios()
}

// LoadScenario loads a specific scenario
func (s *gameServiceImpl) LoadScenario(ctx context.Context, scenarioName string) (*engine.Scenario, error) {
	return s.configs.LoadScenario(scenarioName)
}

// SaveScenario validates and saves a scenario
func (s *gameServiceImpl) SaveScenario(ctx context.Context, scenarioName string, scenario *engine.Scenario) error {
	return s.configs.SaveScenario(scenarioName, scenario)
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// transition runs mutate and the scene change under the session's guard. A
// dropped trigger leaves the session untouched. If mutate fails the scene is
// not changed and the lock is released at once.
func (s *gameServiceImpl) transition(sess *Session, to Scene, mutate func() error) (*TransitionResult, error) {
	from := sess.Scene
	var mutateErr error

	ran := sess.Guard.GuardAsync(func(done func()) {
		if mutate != nil {
			if mutateErr = mutate(); mutateErr != nil {
				done()
				return
			}
		}
		sess.Start(string(to), sess.Run.Day)
		sess.SetPendingDone(done)
	})()
	if mutateErr != nil {
		return nil, mutateErr
	}

	result := &TransitionResult{From: from, To: to}
	now := time.Now()
	if !ran {
		result.Ignored = true
		result.To = from
		result.Events = []GameEvent{{
			Type:      "ignored",
			Message:   "transition already in progress",
			Timestamp: now,
			Scene:     from,
		}}
		s.metrics.IgnoredTransition(string(from))
		log.Printf("[GUARD] session=%s ignored %s -> %s", sess.ID, from, to)
	} else {
		result.Events = []GameEvent{{
			Type:      "transition",
			Message:   fmt.Sprintf("%s -> %s", from, to),
			Timestamp: now,
			Scene:     to,
		}}
		s.metrics.Transition(string(to))
		log.Printf("[SCENE] session=%s day=%d %s -> %s", sess.ID, sess.Run.Day, from, to)
	}
	result.View = s.buildView(sess)
	return result, nil
}

// resolveDay evaluates the finished day and installs a fresh RunState for the
// next one
func (s *gameServiceImpl) resolveDay(sess *Session) (*DayResolution, error) {
	run := sess.Run
	msgs := sess.Scenario.Messages
	correct := run.IsCorrect()

	next, outcome, err := engine.Resolve(run, sess.Scenario.Passengers)
	if err != nil {
		return nil, fmt.Errorf("failed to start next day: %w", err)
	}

	resolution := &DayResolution{
		Day:         run.Day,
		AnomalyID:   run.AnomalyID,
		PlayerGuess: run.PlayerGuess,
		Correct:     correct,
		Outcome:     outcome,
		NextDay:     next.Day,
	}

	switch outcome {
	case engine.OutcomeAdvance:
		sess.Stats.DaysCleared++
		resolution.Message = msgs.AllDropped
	case engine.OutcomeCompleted:
		sess.Stats.DaysCleared++
		sess.Stats.LoopsCompleted++
		resolution.Message = msgs.Completed
	case engine.OutcomeReset:
		sess.Stats.Deaths++
		if p, ok := run.GetAnomalyPassenger(); ok {
			resolution.Message = fmt.Sprintf("%s reveals their true nature... %s", p.DisplayName, msgs.Death)
		} else {
			resolution.Message = msgs.Death
		}
	}

	sess.LastDay = resolution
	sess.Run = next
	sess.Cursor = 0
	sess.Message = resolution.Message

	s.metrics.DayOutcome(string(outcome))
	log.Printf("[DAY] session=%s day=%d guess=%s correct=%v outcome=%s next=%d",
		sess.ID, resolution.Day, resolution.PlayerGuess, correct, outcome, next.Day)
	return resolution, nil
}

// pendingDropoffs counts passengers still due to get off
func (s *gameServiceImpl) pendingDropoffs(sess *Session) int {
	run := sess.Run
	correct := run.IsCorrect()
	count := 0
	for _, pending := range run.DropoffOrder[sess.Cursor:] {
		if !correct && run.IsAnomaly(pending) {
			continue
		}
		count++
	}
	return count
}

func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		log.Printf("[PERSIST] warning: failed to save session %s: %v", sess.ID, err)
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ScenarioID:     sess.ScenarioID,
		ScenarioName:   sess.Scenario.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		View:           s.buildView(sess),
	}
}

// buildView renders the client-visible state. The anomaly id is only included
// once the player has correctly accused it.
func (s *gameServiceImpl) buildView(sess *Session) *RunView {
	run := sess.Run
	msgs := sess.Scenario.Messages

	view := &RunView{
		SessionID:       sess.ID,
		ScenarioID:      sess.ScenarioID,
		Day:             run.Day,
		Seed:            run.Seed,
		Scene:           sess.Scene,
		TutorialDay:     run.Day == 1,
		CorruptionLevel: run.CorruptionLevel(),
		Passengers:      append([]engine.Passenger{}, run.Passengers...),
		DropoffOrder:    append([]string{}, run.DropoffOrder...),
		Cursor:          sess.Cursor,
		PlayerGuess:     run.PlayerGuess,
		InTransition:    sess.Guard.IsInTransition(),
		Message:         sess.Message,
		Stats:           sess.Stats,
		LastDay:         sess.LastDay,
	}
	if view.TutorialDay {
		view.Headline = msgs.TutorialDay
	} else {
		view.Headline = msgs.AnomalyDay
	}
	if run.PlayerGuess != "" && run.IsAnomaly(run.PlayerGuess) {
		view.AnomalyID = run.AnomalyID
	}
	return view
}
