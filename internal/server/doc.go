// Package server exposes the relay over HTTP.
//
// Routes:
//   - GET /ws                    browser WebSocket endpoint
//   - GET /health                component status as JSON
//   - GET /metrics               Prometheus exposition (path configurable)
//   - GET /debug/topics          Topic Map dump
//   - GET /debug/topics/{topic}  single Topic Map entry
//   - GET /debug/connections     registered connections
package server
