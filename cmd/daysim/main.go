// Command daysim prints what each day of a route will hold: the day's seed,
// which passenger is the anomaly and the order passengers get off the bus.
// The output is fully determined by the day number and the roster, so it can
// be used to check a scenario file or to look up golden values for tests.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
)

// DayPlan is one simulated day
type DayPlan struct {
	Day          int      `json:"day"`
	Seed         uint32   `json:"seed"`
	AnomalyID    string   `json:"anomaly_id,omitempty"`
	DropoffOrder []string `json:"dropoff_order"`
	Corruption   int      `json:"corruption"`
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "daysim",
		Usage: "print the anomaly and dropoff order for each day of a route",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "scenario JSON file, or a scenario name under configs/ (default: built-in route)",
			},
			&cli.IntFlag{
				Name:  "from",
				Value: 1,
				Usage: "first day to simulate",
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"n"},
				Value:   engine.MaxDay,
				Usage:   "number of days to simulate",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print JSON instead of a table",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			scenario, err := loadScenario(cmd.String("scenario"))
			if err != nil {
				return err
			}

			plans, err := simulate(scenario.Passengers, int(cmd.Int("from")), int(cmd.Int("days")))
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(plans)
			}
			printTable(w, scenario, plans)
			return nil
		},
	}
}

// loadScenario reads a scenario file, falling back to a name in the configs directory
func loadScenario(ref string) (*engine.Scenario, error) {
	if ref == "" {
		return engine.DefaultScenario(), nil
	}
	if _, err := os.Stat(ref); err == nil {
		scenario, err := engine.LoadScenario(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario %s: %w", ref, err)
		}
		return scenario, nil
	}
	return engine.LoadScenarioByName(ref)
}

// simulate builds count days starting at from
func simulate(passengers []engine.Passenger, from, count int) ([]DayPlan, error) {
	if from < 1 {
		return nil, engine.ErrInvalidDay
	}
	if count < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", count)
	}

	plans := make([]DayPlan, 0, count)
	for day := from; day < from+count; day++ {
		run, err := engine.NewDay(day, passengers)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
		plans = append(plans, DayPlan{
			Day:          run.Day,
			Seed:         run.Seed,
			AnomalyID:    run.AnomalyID,
			DropoffOrder: run.DropoffOrder,
			Corruption:   run.CorruptionLevel(),
		})
	}
	return plans, nil
}

func printTable(w io.Writer, scenario *engine.Scenario, plans []DayPlan) {
	fmt.Fprintf(w, "%s (%s)\n", scenario.Name, strings.Join(scenario.PassengerIDs(), ", "))
	fmt.Fprintf(w, "%-4s %-7s %-12s %s\n", "DAY", "SEED", "ANOMALY", "DROPOFF")
	for _, p := range plans {
		anomaly := p.AnomalyID
		if anomaly == "" {
			anomaly = "-"
		}
		fmt.Fprintf(w, "%-4d %-7d %-12s %s\n", p.Day, p.Seed, anomaly, strings.Join(p.DropoffOrder, " > "))
	}
}
