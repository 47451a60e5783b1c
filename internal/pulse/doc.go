// Package pulse connects to a PulseAudio (or pipewire-pulse) server over
// the native protocol and implements watcher.Server on top of it.
//
// It resolves the server address and authentication cookie the way libpulse
// does, issues each request on its own goroutine and decodes subscription
// events into watcher events.
package pulse
