// Package sharedstate is the boundary to the real-time state layer. The
// synchronization protocol itself is out of scope here; this package owns
// the websocket upgrade (authenticated inline, since the handshake never
// passes ordinary middleware) and the cached content metadata reads the
// state layer and the player route share.
package sharedstate
