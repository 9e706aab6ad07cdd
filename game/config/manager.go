package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrInvalidName      = errors.New("invalid scenario name")
)

// builtinName identifies engine.DefaultScenario when no file could be used
const builtinName = "builtin"

// Manager handles scenario loading and caching
type Manager struct {
	configDir       string
	defaultName     string
	defaultScenario *engine.Scenario
	scenarios       map[string]*engine.Scenario
	mu              sync.RWMutex
}

// NewManager creates a new scenario manager over configDir
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		scenarios: make(map[string]*engine.Scenario),
	}

	m.loadDefaultScenario()
	return m, nil
}

// LoadScenario loads a scenario by name, with or without the .json extension
func (m *Manager) LoadScenario(name string) (*engine.Scenario, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if scenario, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return scenario, nil
	}
	m.mu.RUnlock()

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := engine.ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidScenario, name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have cached it meanwhile
	if cached, exists := m.scenarios[name]; exists {
		return cached, nil
	}
	m.scenarios[name] = scenario
	return scenario, nil
}

// ListScenarios returns information about every valid scenario file
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var scenarios []*service.ScenarioInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		scenario, err := m.LoadScenario(name)
		if err != nil {
			// Skip invalid scenarios
			continue
		}

		scenarios = append(scenarios, &service.ScenarioInfo{
			Filename:       entry.Name(),
			ScenarioID:     name,
			Name:           scenario.Name,
			Description:    scenario.Description,
			PassengerCount: len(scenario.Passengers),
			StopCount:      len(scenario.Stops),
		})
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].ScenarioID < scenarios[j].ScenarioID
	})
	return scenarios, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *engine.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// DefaultName returns the identifier of the default scenario
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default scenario by name
func (m *Manager) SetDefault(name string) error {
	scenario, err := m.LoadScenario(name)
	if err != nil {
		return err
	}
	name, _ = normalizeName(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = name
	m.defaultScenario = scenario
	return nil
}

// RefreshCache drops cached scenarios and re-reads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenarios = make(map[string]*engine.Scenario)
	m.mu.Unlock()

	m.loadDefaultScenario()
	return nil
}

// SaveScenario validates a scenario and writes it to disk
func (m *Manager) SaveScenario(name string, scenario *engine.Scenario) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	if scenario == nil {
		return fmt.Errorf("%w: scenario cannot be nil", ErrInvalidScenario)
	}

	raw, err := json.Marshal(scenario)
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}
	// Parse fills default messages and validates the copy that gets cached
	scenario, err = engine.ParseScenario(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	data, err := json.MarshalIndent(scenario, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario: %w", err)
	}

	if err := os.WriteFile(m.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[name] = scenario
	m.mu.Unlock()

	return nil
}

// loadDefaultScenario prefers classic, then the first valid file, then the
// built-in route
func (m *Manager) loadDefaultScenario() {
	name := "classic"
	scenario, err := m.LoadScenario(name)
	if err != nil {
		scenario, name = nil, builtinName
		if available, listErr := m.ListScenarios(); listErr == nil && len(available) > 0 {
			name = available[0].ScenarioID
			scenario, _ = m.LoadScenario(name)
		}
		if scenario == nil {
			scenario, name = engine.DefaultScenario(), builtinName
		}
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultScenario = scenario
	m.mu.Unlock()
}

// Count returns the number of cached scenarios
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scenarios)
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.configDir, name+".json")
}

// normalizeName strips .json and rejects anything that is not a bare file name
func normalizeName(name string) (string, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
