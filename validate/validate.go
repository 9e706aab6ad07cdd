// Command validate provides a small CLI that validates route scenario JSON
// files in the ../configs directory (or the directory given as the first
// argument). It checks:
//   - JSON structure and required fields
//   - Unique stop ids and passenger ids, with no passenger using the reserved NONE id
//   - Every passenger boards at a known stop and has a seat of its own
//   - Narration messages that name a passenger carry a %s placeholder
//   - Every day of a loop can be built from the roster
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateScenario loads and validates a single scenario JSON file
func validateScenario(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	scenario, err := engine.ParseScenario(data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), "scenario validation: "))
		return result
	}

	loop := validateLoop(scenario.Passengers)
	if !loop.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, loop.Errors...)
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", scenario.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Stops: %d", len(scenario.Stops)))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Passengers: %s", strings.Join(scenario.PassengerIDs(), ", ")))
	for _, stop := range emptyStops(scenario) {
		result.Errors = append(result.Errors, fmt.Sprintf("⚠ Nobody boards at stop '%s'", stop))
	}
	result.Errors = append(result.Errors, loop.Errors...)

	return result
}

// validateLoop builds every day of one loop from the roster and reports each
// day's anomaly
func validateLoop(passengers []engine.Passenger) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	var anomalies []string
	for day := 1; day <= engine.MaxDay; day++ {
		run, err := engine.NewDay(day, passengers)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Day %d cannot start: %v", day, err))
			continue
		}
		if run.AnomalyID != "" {
			anomalies = append(anomalies, fmt.Sprintf("%d:%s", day, run.AnomalyID))
		}
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Anomalies: %s", strings.Join(anomalies, " ")))
	}
	return result
}

// emptyStops lists stops no passenger boards at
func emptyStops(scenario *engine.Scenario) []string {
	used := make(map[string]bool, len(scenario.Passengers))
	for _, p := range scenario.Passengers {
		used[p.StopID] = true
	}
	var empty []string
	for _, stop := range scenario.Stops {
		if !used[stop.ID] {
			empty = append(empty, stop.ID)
		}
	}
	return empty
}

// main scans the scenario directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding scenario files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No scenario files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateScenario(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All scenarios are valid!")
	} else {
		fmt.Println("❌ Some scenarios have errors")
		os.Exit(1)
	}
}
