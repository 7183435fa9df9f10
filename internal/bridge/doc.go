// Package bridge connects native producers to browser clients.
//
// A Source delivers two feeds: discovery updates (TopicInfo) and topic
// payloads (opaque protobuf bytes). The Bridge folds discovery updates into
// the Topic Map and broadcasts the full topic list after each one, exactly as
// browsers expect from a felicia.TopicInfo frame. Payloads are checked for
// well-formed protobuf wire encoding and forwarded through the broadcaster
// under their registered type name.
//
// Two sources exist: NATSSource for deployments and LocalSource for tests and
// single-process development. RunDemo drives any Publisher with synthetic
// topics, for the relay's --demo flag and the probe's produce mode.
package bridge
