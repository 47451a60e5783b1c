// Package watcher tracks the audio server's default sink and reports its
// volume and mute state whenever either changes.
//
// A Watcher owns all mutable state and runs every handler on a single event
// loop. Requests to the server are fire-and-forget; their completions are
// posted back onto the loop and may arrive in any order, so device results
// are re-checked against the current default sink before being reported.
package watcher
