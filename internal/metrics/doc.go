// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Browser connection count, registrations and sweeps
//   - Router message outcomes
//   - Broadcast volume and frames queued
//   - Bridge payload outcomes and Topic Map size
//
// All collectors live on a private registry exposed by Handler. A nil
// *Metrics is valid and records nothing.
package metrics
