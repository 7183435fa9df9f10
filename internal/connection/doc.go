// Package connection owns browser WebSocket connections.
//
// Each accepted socket becomes a Conn with a generated ID, a read loop that
// hands frames to a MessageHandler, a single write pump draining an
// unbounded outbox, and a heartbeat that pings the browser and closes the
// socket when pongs stop arriving.
//
// The Registry tracks every Conn. Closed connections are not removed when
// they close; the sweeper collects them on the next heartbeat tick.
package connection
