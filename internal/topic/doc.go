// Package topic holds the process-wide Topic Map.
//
// The map is keyed by topic name and remembers insertion order, so listings
// sent to browsers are stable across requests. Producers announce topics as
// REGISTERED and withdraw them as UNREGISTERED; Apply folds either into the
// map and reports what changed.
package topic
