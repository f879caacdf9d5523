// Package api implements the HTTP adapter in front of the gate.
//
// New(backend) returns an http.Handler that serves:
//
//	POST   /task       - create or replace a task         → 201, empty body
//	GET    /task       - all tasks, ordered by id          → 200 []Task
//	GET    /task/{id}  - one task                          → 200 Task | 404
//	PUT    /task/{id}  - replace; body id must match path  → 201 | 400
//	DELETE /task/{id}  - remove                            → 200 Task | 200 null
//	POST   /register   - create or replace a user          → 201, empty body
//	POST   /login      - check credentials                 → 200 | 401
//	GET    /healthz    - liveness                          → 200 {"status":"ok"}
//
// Bodies are JSON. Missing fields, malformed JSON and non-numeric ids get 400
// with {"error": "..."}; unsupported methods get 405. A mutation whose snapshot
// save failed is still acknowledged because it is applied in memory.
//
// CORS wraps any handler with the localhost-only CORS policy. No external
// HTTP framework is used.
package api
