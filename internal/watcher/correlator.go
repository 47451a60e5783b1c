package watcher

// onEvent turns a change event into a follow-up query. Server changes may
// have moved the default, so discovery re-runs. Any sink change queries the
// current default sink, whichever sink actually changed; the reporter drops
// results that no longer match.
func (w *Watcher) onEvent(ev Event) {
	w.observer.EventReceived(ev)

	if ev.Kind != EventChange {
		return
	}

	switch ev.Facility {
	case FacilityServer:
		w.discover()
	case FacilityDevice:
		if w.hasDefault {
			w.queryDevice(w.defaultSink)
		}
	}
}
