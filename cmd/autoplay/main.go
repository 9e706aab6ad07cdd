// Command autoplay plays Anomaly Bus over the REST API. It works out each
// day's anomaly on its own from the day number and the roster, accuses it, and
// drives the session through every scene until the requested number of days
// has been cleared. A day can be deliberately failed with --miss-day to watch
// the run reset.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/anomalybus/game/engine"
	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

// maxSteps bounds a game so a misbehaving server cannot keep the player looping
const maxSteps = 10000

var errStepLimit = errors.New("step limit reached before the target was met")

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play a session end-to-end against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "base URL of the game server",
				Sources: cli.EnvVars("ANOMALYBUS_URL"),
			},
			&cli.StringFlag{
				Name:  "scenario",
				Usage: "scenario id for a new session (default: server default)",
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "continue an existing session instead of creating one",
			},
			&cli.IntFlag{
				Name:  "days",
				Value: engine.MaxDay,
				Usage: "stop after clearing this many days",
			},
			&cli.IntFlag{
				Name:  "miss-day",
				Usage: "accuse the wrong passenger once on this day (2 or later)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p := &player{
				baseURL: strings.TrimSuffix(cmd.String("server"), "/"),
				http:    &http.Client{Timeout: 10 * time.Second},
				out:     w,
				missDay: int(cmd.Int("miss-day")),
			}

			sessionID := cmd.String("session")
			if sessionID == "" {
				info, err := p.createSession(ctx, cmd.String("scenario"))
				if err != nil {
					return err
				}
				sessionID = info.ID
				fmt.Fprintf(w, "Session %s on %s\n", info.ID, info.ScenarioName)
			}

			stats, err := p.play(ctx, sessionID, int(cmd.Int("days")))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Done: %d days cleared, %d deaths, %d loops\n", stats.DaysCleared, stats.Deaths, stats.LoopsCompleted)
			return nil
		},
	}
}

// player drives one session through the REST API
type player struct {
	baseURL string
	http    *http.Client
	out     io.Writer
	missDay int
	missed  bool
}

func (p *player) call(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (p *player) createSession(ctx context.Context, scenarioID string) (*service.SessionInfo, error) {
	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}
	var info service.SessionInfo
	if err := p.call(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (p *player) sessionPath(sessionID, action string) string {
	return fmt.Sprintf("/api/sessions/%s/%s", sessionID, action)
}

func (p *player) resetGuard(ctx context.Context, sessionID string) error {
	fmt.Fprintln(p.out, "  guard held, resetting")
	return p.call(ctx, "POST", p.sessionPath(sessionID, "transition/reset"), nil, nil)
}

// guess picks the accusation for the day in view
func (p *player) guess(view *service.RunView) (string, error) {
	run, err := engine.NewDay(view.Day, view.Passengers)
	if err != nil {
		return "", fmt.Errorf("failed to derive day %d: %w", view.Day, err)
	}

	// day 1 only takes NONE, so it cannot be missed
	if view.Day == p.missDay && !p.missed && run.AnomalyID != "" {
		p.missed = true
		for _, passenger := range run.Passengers {
			if passenger.ID != run.AnomalyID {
				return passenger.ID, nil
			}
		}
	}

	if run.AnomalyID == "" {
		return engine.NoAnomalyGuess, nil
	}
	return run.AnomalyID, nil
}

// play runs the scene loop until target days have been cleared since the
// start of the call
func (p *player) play(ctx context.Context, sessionID string, target int) (service.Stats, error) {
	var view service.RunView
	if err := p.call(ctx, "GET", p.sessionPath(sessionID, "state"), nil, &view); err != nil {
		return service.Stats{}, err
	}
	start := view.Stats.DaysCleared

	for step := 0; step < maxSteps; step++ {
		if view.Stats.DaysCleared-start >= target {
			return view.Stats, nil
		}
		if err := ctx.Err(); err != nil {
			return view.Stats, err
		}

		next, err := p.step(ctx, sessionID, &view)
		if err != nil {
			return view.Stats, err
		}
		view = *next
	}
	return view.Stats, errStepLimit
}

// step performs the one action the current scene calls for and returns the
// resulting view
func (p *player) step(ctx context.Context, sessionID string, view *service.RunView) (*service.RunView, error) {
	switch view.Scene {
	case service.SceneDaySplash, service.ScenePickup, service.SceneDriverReturn:
		var result service.TransitionResult
		if err := p.call(ctx, "POST", p.sessionPath(sessionID, "advance"), nil, &result); err != nil {
			return nil, err
		}
		if result.Ignored {
			return view, p.resetGuard(ctx, sessionID)
		}
		if view.Scene == service.SceneDaySplash {
			fmt.Fprintf(p.out, "Day %d: %s\n", result.View.Day, result.View.Headline)
		}
		return p.completed(ctx, sessionID)

	case service.SceneInvestigation:
		accused, err := p.guess(view)
		if err != nil {
			return nil, err
		}
		var result service.AccuseResult
		if err := p.call(ctx, "POST", p.sessionPath(sessionID, "accuse"), map[string]string{"passenger_id": accused}, &result); err != nil {
			return nil, err
		}
		if result.Ignored {
			return view, p.resetGuard(ctx, sessionID)
		}
		fmt.Fprintf(p.out, "  accused %s\n", accused)
		return p.completed(ctx, sessionID)

	case service.SceneDropoff:
		var result service.DropoffResult
		if err := p.call(ctx, "POST", p.sessionPath(sessionID, "dropoff"), nil, &result); err != nil {
			return nil, err
		}
		if result.Ignored {
			return view, p.resetGuard(ctx, sessionID)
		}
		if !result.Resolved {
			return result.View, nil
		}
		r := result.Resolution
		fmt.Fprintf(p.out, "  day %d %s (anomaly %s, next day %d)\n", r.Day, r.Outcome, orNone(r.AnomalyID), r.NextDay)
		return p.completed(ctx, sessionID)

	default:
		return nil, fmt.Errorf("unexpected scene %q", view.Scene)
	}
}

// completed signals the end of the transition the last call started
func (p *player) completed(ctx context.Context, sessionID string) (*service.RunView, error) {
	var view service.RunView
	if err := p.call(ctx, "POST", p.sessionPath(sessionID, "transition/complete"), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func orNone(id string) string {
	if id == "" {
		return "none"
	}
	return id
}
