package engine

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createValidScenario() *Scenario {
	scenario := &Scenario{
		Name:        "Test Route",
		Description: "A valid test scenario",
		Stops: []Stop{
			{ID: "north", Name: "North Gate"},
			{ID: "south", Name: "South Gate"},
		},
		Passengers: []Passenger{
			{ID: "a", DisplayName: "Alice", SeatIndex: 0, StopID: "north"},
			{ID: "b", DisplayName: "Bob", SeatIndex: 1, StopID: "north"},
			{ID: "c", DisplayName: "Cleo", SeatIndex: 2, StopID: "south"},
		},
	}
	scenario.applyDefaultMessages()
	return scenario
}

const testScenarioJSON = `{
	"name": "Test Route",
	"description": "Test description",
	"stops": [
		{"id": "north", "name": "North Gate"},
		{"id": "south", "name": "South Gate"}
	],
	"passengers": [
		{"id": "a", "displayName": "Alice", "seatIndex": 0, "stopId": "north"},
		{"id": "b", "displayName": "Bob", "seatIndex": 1, "stopId": "south"}
	],
	"messages": {
		"welcome": "Welcome!",
		"anomaly_caught": "Got %s!"
	}
}`

func TestValidateScenario_Valid(t *testing.T) {
	if err := ValidateScenario(createValidScenario()); err != nil {
		t.Errorf("Expected valid scenario to pass validation, got: %v", err)
	}
	if err := ValidateScenario(DefaultScenario()); err != nil {
		t.Errorf("Expected default scenario to pass validation, got: %v", err)
	}
}

func TestValidateScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no stops", func(s *Scenario) { s.Stops = nil }, "at least one stop"},
		{"duplicate stop", func(s *Scenario) { s.Stops[1].ID = "north" }, "duplicate stop id"},
		{"no passengers", func(s *Scenario) { s.Passengers = nil }, "passenger count"},
		{"duplicate passenger", func(s *Scenario) { s.Passengers[1].ID = "a" }, "duplicate passenger id"},
		{"reserved passenger", func(s *Scenario) { s.Passengers[0].ID = NoAnomalyGuess }, "reserved"},
		{"missing display name", func(s *Scenario) { s.Passengers[0].DisplayName = "" }, "display name"},
		{"unknown stop", func(s *Scenario) { s.Passengers[2].StopID = "east" }, "unknown stop"},
		{"shared seat", func(s *Scenario) { s.Passengers[1].SeatIndex = 0 }, "seat 0 is shared"},
		{"negative seat", func(s *Scenario) { s.Passengers[0].SeatIndex = -1 }, "negative seat"},
		{"caught format", func(s *Scenario) { s.Messages.AnomalyCaught = "Caught!" }, "anomaly_caught"},
		{"innocent format", func(s *Scenario) { s.Messages.InnocentAccused = "Oops" }, "innocent_accused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := createValidScenario()
			tt.mutate(scenario)
			err := ValidateScenario(scenario)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateScenario_WrapsRosterErrors(t *testing.T) {
	scenario := createValidScenario()
	scenario.Passengers[2].ID = "a"
	if err := ValidateScenario(scenario); !errors.Is(err, ErrDuplicatePassenger) {
		t.Errorf("Expected ErrDuplicatePassenger, got %v", err)
	}
}

func TestParseScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(testScenarioJSON))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}
	if scenario.Name != "Test Route" {
		t.Errorf("Expected name 'Test Route', got '%s'", scenario.Name)
	}
	if scenario.Messages.AnomalyCaught != "Got %s!" {
		t.Errorf("Expected custom anomaly_caught, got '%s'", scenario.Messages.AnomalyCaught)
	}
	if scenario.Messages.InnocentAccused == "" || scenario.Messages.Death == "" {
		t.Error("Expected missing messages to be defaulted")
	}

	if _, err := ParseScenario([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestLoadScenario(t *testing.T) {
	t.Setenv("CONFIG_DIR", "")
	tempFile := filepath.Join(t.TempDir(), "route.json")
	if err := os.WriteFile(tempFile, []byte(testScenarioJSON), 0644); err != nil {
		t.Fatalf("Failed to create test scenario file: %v", err)
	}

	scenario, err := LoadScenario(tempFile)
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if len(scenario.Passengers) != 2 {
		t.Errorf("Expected 2 passengers, got %d", len(scenario.Passengers))
	}

	if _, err := LoadScenario("nonexistent.json"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadScenarioByName(t *testing.T) {
	t.Setenv("CONFIG_DIR", "")
	tempDir := t.TempDir()

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tempDir)

	os.MkdirAll("configs", 0755)
	if err := os.WriteFile(filepath.Join("configs", "test.json"), []byte(testScenarioJSON), 0644); err != nil {
		t.Fatalf("Failed to create test scenario file: %v", err)
	}

	for _, name := range []string{"test", "test.json"} {
		scenario, err := LoadScenarioByName(name)
		if err != nil {
			t.Fatalf("Failed to load scenario %q: %v", name, err)
		}
		if scenario.Name != "Test Route" {
			t.Errorf("Expected name 'Test Route', got '%s'", scenario.Name)
		}
	}

	_, err := LoadScenarioByName("nonexistent")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}

func TestLoadScenario_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "alt.json"), []byte(testScenarioJSON), 0644); err != nil {
		t.Fatalf("Failed to create test scenario file: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	if _, err := LoadScenario("configs/alt.json"); err != nil {
		t.Errorf("Expected CONFIG_DIR to be honoured, got: %v", err)
	}
}

func TestScenario_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Passenger{ID: "a", DisplayName: "Alice", SeatIndex: 2, StopID: "north"})
	if err != nil {
		t.Fatalf("Failed to marshal passenger: %v", err)
	}
	for _, field := range []string{`"id"`, `"displayName"`, `"seatIndex"`, `"stopId"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected field %s in %s", field, data)
		}
	}
}

func TestScenario_PassengerIDs(t *testing.T) {
	ids := DefaultScenario().PassengerIDs()
	want := []string{"grandma", "man", "kid", "dog"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, ids)
	}
}
