// Package config loads bus route scenarios from a directory of JSON files.
//
// Each file describes one route:
//
//	{
//	  "name": "Night Route",
//	  "description": "Four regulars on the last bus of the night",
//	  "stops": [{"id": "market", "name": "Market Street"}],
//	  "passengers": [
//	    {"id": "grandma", "displayName": "Grandma Rose", "seatIndex": 0, "stopId": "market"}
//	  ],
//	  "messages": {"welcome": "Welcome aboard."}
//	}
//
// Missing messages get defaults and every file is validated with
// engine.ValidateScenario before it is cached. The scenario id is the file
// name without .json.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadScenario("rush_hour")
//	scenarios, err := manager.ListScenarios()
//
// The default scenario is classic.json when present, otherwise the first
// valid file in name order, otherwise the built-in engine.DefaultScenario.
package config
