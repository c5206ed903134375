// Package fleet keeps fleetdash's view of the agent fleet.
//
// # Snapshots
//
// An AgentSnapshot is one agent as the Fleet API reported it. Decoding
// normalizes the status: only online agents carry StatusData, and every
// metric is read through an accessor that yields zero when the agent did not
// report it.
//
// # Polling
//
// Poller fetches the full list on a fixed interval (30s by default). A
// successful fetch replaces the previous Fleet as a whole, with no per-field
// merging, so an agent missing from the response is gone from the view. A
// failed fetch keeps the previous Fleet and is only logged and counted.
// Refreshes are single-flight: a call that arrives while one is running
// returns ErrRefreshInFlight.
//
// # Selection
//
// Selection holds the agent the user is looking at. It picks the first agent
// of the first non-empty fleet and then never changes on its own:
//
//	sel := fleet.NewSelection()
//	sel.Follow(poller)
//	go poller.Run(ctx)
//
// Generation increments whenever the selection changes; per-agent file
// sessions use it to discard results that belong to a previous agent.
package fleet
