// Package harness runs scripted scenarios against the sync engine.
//
// A scenario drives an engine wired to an in-memory presence client and a
// frozen clock, records every tick and event in a trace, and checks the
// trace against assertions and, optionally, a golden file.
//
// # Scenario Format
//
//	name: dirty_tracking
//	description: "Each mutation is submitted exactly once"
//	show_time: true
//	steps:
//	  - action: tick
//	    expect: submitted
//	  - action: set
//	    activity: { state: In the menus }
//	  - action: fail
//	    error: not_connected
//	  - action: emit
//	    event: activity_join
//	  - action: consume
//	assertions:
//	  - type: submission_count
//	    count: 1
//	  - type: tick_results
//	    results: [submitted]
//	  - type: last_submission
//	    state: In the menus
//	  - type: consumed_events
//	    events: [activity_join]
//	  - type: pending_events
//	    count: 0
//
// # Step Actions
//
//   - set: replaces the presence with the activity block, keeping timestamps
//   - tick: runs one engine tick, optionally checking its result
//   - fail: makes the next submission fail ("not_connected" or a message)
//   - emit: reports an event as the presence client would
//   - consume: drains the event queue, oldest first
//
// # Deterministic Testing
//
// The clock is frozen at ScenarioStart, so start timestamps and traces are
// identical across runs. Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
