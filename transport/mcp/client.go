package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/anomalybus/game/service"
)

// maxDropoffSteps bounds the dropoff loop of the dropoff tool with all=true
const maxDropoffSteps = 64

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Anomaly Bus",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Anomaly Bus - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive the night bus for six days. From day 2 on, one passenger each day is an
anomaly. Accuse it (or NONE on day 1) before the dropoff to survive the day.

AVAILABLE TOOLS:
- create_session: Start a new route on day 1
- list_sessions / get_state: Inspect sessions
- advance: Move to the next scene (splash, pickup, driver return)
- interrogate: Talk to a passenger during investigation
- accuse: Name the anomaly during investigation, or NONE
- dropoff: Let passengers off; all=true finishes the day
- reset_guard: Release a stuck scene transition
- list_scenarios: Available routes
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new route session with optional scenario selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario_id": map[string]interface{}{
					"type":        "string",
					"description": "Scenario to use (optional, see list_scenarios)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_state",
		Description: "Get the current day, scene, passengers and dropoff order of a session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetState)

	// Scene flow
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advance",
		Description: "Advance to the next scene. Works in day_splash, pickup and driver_return.",
		InputSchema: sessionSchema(nil),
	}, c.handleAdvance)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "interrogate",
		Description: "Talk to a passenger during investigation. Returns which dialogue variant they answer with: normal or anomaly.",
		InputSchema: sessionSchema(map[string]interface{}{
			"passenger_id": map[string]interface{}{
				"type":        "string",
				"description": "Passenger id",
			},
		}, "passenger_id"),
	}, c.handleInterrogate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "accuse",
		Description: "Accuse a passenger of being the anomaly, or NONE to trust everyone. Only during investigation.",
		InputSchema: sessionSchema(map[string]interface{}{
			"passenger_id": map[string]interface{}{
				"type":        "string",
				"description": "Passenger id, or NONE",
			},
			"reasoning": map[string]interface{}{
				"type":        "string",
				"description": "Why you suspect this passenger (serves as a rubber duck to help explain your reasoning)",
			},
		}, "passenger_id"),
	}, c.handleAccuse)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "dropoff",
		Description: "Let the next passenger off the bus. With all=true keeps going until the day resolves.",
		InputSchema: sessionSchema(map[string]interface{}{
			"all": map[string]interface{}{
				"type":        "boolean",
				"description": "Drop everyone off and resolve the day",
			},
		}),
	}, c.handleDropoff)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_guard",
		Description: "Release the scene transition lock if a session appears stuck",
		InputSchema: sessionSchema(nil),
	}, c.handleResetGuard)

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List available route scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// completeTransition releases the guard right away; agents have nothing to animate
func (c *Client) completeTransition(ctx context.Context, sessionID string) (*service.RunView, error) {
	var view service.RunView
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/transition/complete", sessionID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	scenarioID, _ := args["scenario_id"].(string)

	body := map[string]string{}
	if scenarioID != "" {
		body["scenario_id"] = scenarioID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", len(resp.Sessions))
	for _, s := range resp.Sessions {
		day, scene := 0, service.Scene("")
		if s.View != nil {
			day, scene = s.View.Day, s.View.Scene
		}
		fmt.Fprintf(&b, "- %s (%s) day %d, %s\n", s.ID, s.ScenarioID, day, scene)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var view service.RunView
	if err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s/state", sessionID), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunView(&view)), nil
}

func (c *Client) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var result service.TransitionResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/advance", sessionID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.Ignored {
		return mcp.NewToolResultText("A scene transition is still in progress; try again or use reset_guard.\n\n" + formatRunView(result.View)), nil
	}

	view, err := c.completeTransition(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s -> %s\n\n%s", result.From, result.To, formatRunView(view))), nil
}

func (c *Client) handleInterrogate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	passengerID, _ := args["passenger_id"].(string)

	var result service.InterrogateResult
	body := map[string]string{"passenger_id": passengerID}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/interrogate", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s (%s) answers with %s dialogue", result.DisplayName, result.PassengerID, result.Dialogue)), nil
}

func (c *Client) handleAccuse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	passengerID, _ := args["passenger_id"].(string)
	// reasoning is for the agent's benefit only

	var result service.AccuseResult
	body := map[string]string{"passenger_id": passengerID}
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/accuse", sessionID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.Ignored {
		return mcp.NewToolResultText("A scene transition is still in progress; the accusation was not recorded."), nil
	}

	view, err := c.completeTransition(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Accused: %s\n", result.Accused)
	if result.Reveal != "" {
		fmt.Fprintf(&b, "%s\n", result.Reveal)
	}
	b.WriteString("\n" + formatRunView(view))
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleDropoff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	all, _ := args["all"].(bool)

	var b strings.Builder
	path := fmt.Sprintf("/api/sessions/%s/dropoff", sessionID)
	for step := 0; step < maxDropoffSteps; step++ {
		var result service.DropoffResult
		if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b.WriteString(formatDropoffResult(&result))

		if result.Ignored {
			b.WriteString("A scene transition is still in progress; try again.\n")
			break
		}
		if result.Resolved {
			view, err := c.completeTransition(ctx, sessionID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			b.WriteString("\n" + formatRunView(view))
			break
		}
		if !all {
			b.WriteString("\n" + formatRunView(result.View))
			break
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleResetGuard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var view service.RunView
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/transition/reset", sessionID), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Transition guard released\n\n" + formatRunView(&view)), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []*service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(scenarios) == 0 {
		return mcp.NewToolResultText("No scenario files found; sessions use the built-in route"), nil
	}

	var b strings.Builder
	b.WriteString("Available scenarios:\n")
	for _, s := range scenarios {
		fmt.Fprintf(&b, "- %s: %s (%d passengers, %d stops)\n  %s\n",
			s.ScenarioID, s.Name, s.PassengerCount, s.StopCount, s.Description)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Anomaly Bus - Complete Instructions

GAME OBJECTIVE:
Survive six days on the night route. From day 2 on, exactly one passenger each
day is an anomaly. Catch it before the dropoff, or the night starts over.

DAY LOOP:
1. day_splash     - advance
2. pickup         - advance; passengers board
3. investigation  - interrogate passengers, then accuse one, or NONE
4. driver_return  - advance; the accused passenger is removed
5. dropoff        - dropoff until the day resolves

RULES:
- Day 1 is the tutorial day: there is no anomaly and only NONE is accepted.
- A correct accusation advances the day; after day 6 the route loops to day 1.
- A wrong accusation (or NONE on an anomaly day) resets you to day 1.
- When your guess is wrong the anomaly stays on the bus during the dropoff.

SCENE TRANSITIONS:
Scene changes are locked while a transition plays. The tools here release the
lock for you; if a session still appears stuck, call reset_guard.

Good luck on the night route!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nScenario: %s (%s)\nCreated: %s\n\n%s",
		session.ID, session.ScenarioName, session.ScenarioID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatRunView(session.View))
}

func formatRunView(view *service.RunView) string {
	if view == nil {
		return "No state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Day %d | Scene: %s | %s\n", view.Day, view.Scene, view.Headline)
	if view.CorruptionLevel > 0 {
		fmt.Fprintf(&b, "Corruption: %d\n", view.CorruptionLevel)
	}
	if view.InTransition {
		b.WriteString("Transition in progress\n")
	}

	if len(view.Passengers) > 0 {
		b.WriteString("\nPassengers:\n")
		for _, p := range view.Passengers {
			fmt.Fprintf(&b, "- %s (%s) seat %d, boarded at %s\n", p.ID, p.DisplayName, p.SeatIndex, p.StopID)
		}
	}

	if view.Scene == service.SceneDropoff || view.Scene == service.SceneDriverReturn {
		fmt.Fprintf(&b, "\nDropoff order: %s (next: %d)\n", strings.Join(view.DropoffOrder, ", "), view.Cursor)
	}
	if view.PlayerGuess != "" {
		fmt.Fprintf(&b, "Your guess: %s\n", view.PlayerGuess)
	}
	if view.AnomalyID != "" {
		fmt.Fprintf(&b, "Anomaly: %s\n", view.AnomalyID)
	}
	if view.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", view.Message)
	}
	fmt.Fprintf(&b, "\nDays cleared: %d | Deaths: %d | Loops: %d\n",
		view.Stats.DaysCleared, view.Stats.Deaths, view.Stats.LoopsCompleted)

	return b.String()
}

func formatDropoffResult(result *service.DropoffResult) string {
	var b strings.Builder
	for _, id := range result.Skipped {
		fmt.Fprintf(&b, "%s stays on the bus\n", id)
	}
	if result.Passenger != "" {
		fmt.Fprintf(&b, "✓ %s got off (%d left)\n", result.Passenger, result.Remaining)
	}
	if result.Resolved && result.Resolution != nil {
		r := result.Resolution
		status := "✗"
		if r.Correct {
			status = "✓"
		}
		fmt.Fprintf(&b, "%s Day %d resolved: %s -> day %d\n%s\n", status, r.Day, r.Outcome, r.NextDay, r.Message)
	}
	return b.String()
}
