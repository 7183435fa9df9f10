// Package model defines shared data types used across the visualization relay.
//
// Types mirror the JSON form of the Felicia master protobuf messages as the
// browser dashboard consumes them (camelCase field names, enums as strings).
//
// Conventions:
//   - Topic names are opaque strings and unique within the Topic Map
//   - Type names are fully qualified protobuf names (e.g. "felicia.CameraFrameMessage")
//   - Timestamps: time.Time in UTC
package model
