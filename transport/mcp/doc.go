// Package mcp provides a Model Context Protocol server for Anomaly Bus.
//
// The server is a thin client: every tool call is proxied to the REST API, so
// an agent plays exactly the same sessions a browser or the autoplay CLI does.
//
// MCP Tools:
//   - create_session: Start a route on day 1, optionally from a scenario file
//   - list_sessions: List active sessions
//   - get_state: Day, scene, passengers and (after investigation) dropoff order
//   - advance: Move past day_splash, pickup or driver_return
//   - interrogate: Which dialogue variant a passenger answers with
//   - accuse: Name the anomaly, or NONE
//   - dropoff: Let the next passenger off; all=true resolves the day
//   - reset_guard: Release a stuck scene transition
//   - list_scenarios: Scenario files known to the server
//   - game_instructions: The rules
//
// Agents have no animation to wait for, so advance, accuse and a resolving
// dropoff signal transition completion immediately after the guarded call.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
