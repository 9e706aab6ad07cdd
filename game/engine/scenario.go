package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateScenario validates a scenario for correctness and playability
func ValidateScenario(scenario *Scenario) error {
	if scenario == nil {
		return fmt.Errorf("scenario validation: scenario is nil")
	}

	// Validate required fields
	if scenario.Name == "" {
		return fmt.Errorf("scenario validation: name is required")
	}
	if scenario.Description == "" {
		return fmt.Errorf("scenario validation: description is required")
	}

	// Validate stops
	if len(scenario.Stops) == 0 {
		return fmt.Errorf("scenario validation: at least one stop is required")
	}
	stops := make(map[string]bool, len(scenario.Stops))
	for i, stop := range scenario.Stops {
		if stop.ID == "" {
			return fmt.Errorf("scenario validation: stop %d has no id", i+1)
		}
		if stops[stop.ID] {
			return fmt.Errorf("scenario validation: duplicate stop id '%s'", stop.ID)
		}
		stops[stop.ID] = true
	}

	// Validate roster
	if len(scenario.Passengers) < MinPassengers || len(scenario.Passengers) > MaxPassengers {
		return fmt.Errorf("scenario validation: passenger count must be between %d and %d, got %d",
			MinPassengers, MaxPassengers, len(scenario.Passengers))
	}
	if err := ValidateRoster(scenario.Passengers); err != nil {
		return fmt.Errorf("scenario validation: %w", err)
	}

	seats := make(map[int]string, len(scenario.Passengers))
	for _, p := range scenario.Passengers {
		if p.DisplayName == "" || len(p.DisplayName) > MaxDisplayLength {
			return fmt.Errorf("scenario validation: passenger '%s' display name must be 1-%d characters", p.ID, MaxDisplayLength)
		}
		if !stops[p.StopID] {
			return fmt.Errorf("scenario validation: passenger '%s' boards at unknown stop '%s'", p.ID, p.StopID)
		}
		if p.SeatIndex < 0 {
			return fmt.Errorf("scenario validation: passenger '%s' has negative seat index %d", p.ID, p.SeatIndex)
		}
		if other, taken := seats[p.SeatIndex]; taken {
			return fmt.Errorf("scenario validation: seat %d is shared by '%s' and '%s'", p.SeatIndex, other, p.ID)
		}
		seats[p.SeatIndex] = p.ID
	}

	// Validate messages
	if scenario.Messages.Welcome == "" {
		return fmt.Errorf("scenario validation: messages.welcome is required")
	}
	if scenario.Messages.Death == "" {
		return fmt.Errorf("scenario validation: messages.death is required")
	}
	if scenario.Messages.AnomalyCaught != "" && !strings.Contains(scenario.Messages.AnomalyCaught, "%s") {
		return fmt.Errorf("scenario validation: messages.anomaly_caught must contain %%s for the passenger name")
	}
	if scenario.Messages.InnocentAccused != "" && !strings.Contains(scenario.Messages.InnocentAccused, "%s") {
		return fmt.Errorf("scenario validation: messages.innocent_accused must contain %%s for the passenger name")
	}

	return nil
}

// LoadScenario loads a scenario from a JSON file
func LoadScenario(filename string) (*Scenario, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	path := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			path = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario JSON
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := json.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	scenario.applyDefaultMessages()

	if err := ValidateScenario(&scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// LoadScenarioByName loads a scenario by name from the configs directory
func LoadScenarioByName(name string) (*Scenario, error) {
	if !strings.HasSuffix(name, ".json") {
		name = name + ".json"
	}

	path := filepath.Join("configs", name)
	scenario, err := LoadScenario(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("scenario file '%s' not found", name)
		}
		return nil, fmt.Errorf("invalid scenario '%s': %w", name, err)
	}
	return scenario, nil
}

// DefaultScenario returns the built-in route used when no scenario files exist
func DefaultScenario() *Scenario {
	scenario := &Scenario{
		Name:        "Night Route",
		Description: "Four regulars on the last bus of the night",
		Stops: []Stop{
			{ID: "market", Name: "Market Street"},
			{ID: "library", Name: "Old Library"},
			{ID: "park", Name: "Riverside Park"},
		},
		Passengers: []Passenger{
			{ID: "grandma", DisplayName: "Grandma Rose", SeatIndex: 0, StopID: "market"},
			{ID: "man", DisplayName: "Mr. Lane", SeatIndex: 1, StopID: "market"},
			{ID: "kid", DisplayName: "Ari", SeatIndex: 2, StopID: "library"},
			{ID: "dog", DisplayName: "Dex", SeatIndex: 3, StopID: "park"},
		},
	}
	scenario.applyDefaultMessages()
	return scenario
}

// PassengerIDs returns the roster ids in order
func (s *Scenario) PassengerIDs() []string {
	ids := make([]string, len(s.Passengers))
	for i, p := range s.Passengers {
		ids[i] = p.ID
	}
	return ids
}

func (s *Scenario) applyDefaultMessages() {
	m := &s.Messages
	if m.Welcome == "" {
		m.Welcome = "Welcome aboard. Watch your passengers closely."
	}
	if m.TutorialDay == "" {
		m.TutorialDay = "Tutorial Day - No Anomalies"
	}
	if m.AnomalyDay == "" {
		m.AnomalyDay = "Find the Anomaly Among Passengers"
	}
	if m.AnomalyCaught == "" {
		m.AnomalyCaught = "%s was the anomaly!"
	}
	if m.InnocentAccused == "" {
		m.InnocentAccused = "%s was innocent!"
	}
	if m.TrustEveryone == "" {
		m.TrustEveryone = "You trust everyone on the bus"
	}
	if m.AllDropped == "" {
		m.AllDropped = "All passengers processed"
	}
	if m.Death == "" {
		m.Death = "The anomaly was still on board. The night starts over."
	}
	if m.Completed == "" {
		m.Completed = "You survived every night. The route begins again."
	}
}
