// Package api exposes export runs over HTTP so host-side panels can trigger
// passes and read the mapping without shelling out to the CLI.
//
// Routes:
//
//	GET  /api/health        liveness and the last run summary
//	POST /api/runs          run one pass (optional selection override)
//	GET  /api/runs          run history, newest first (?limit=N)
//	GET  /api/runs/{id}     one history entry
//	GET  /api/mapping       the current clip_mapping.json
//
// When a token is configured every route except /api/health requires
// "Authorization: Bearer <token>".
package api
