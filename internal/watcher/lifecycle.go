package watcher

// onStateChange reacts to the connection lifecycle. Ready starts discovery;
// Failed is fatal and never retried.
func (w *Watcher) onStateChange(state ConnState) {
	w.logger.Debug("connection state changed", "state", state)

	switch state {
	case StateReady:
		w.discover()
	case StateFailed:
		w.fail(ErrConnectionFailed)
	}
}
