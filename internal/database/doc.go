// Package database manages the optional PostgreSQL pool behind the journal.
//
// The relay runs without a database; when one is configured it records topic
// lifecycle events and browser sessions for offline inspection.
package database
