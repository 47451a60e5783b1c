package watcher

import "fmt"

// subscribeMask is the set of facilities the correlator reacts to.
const subscribeMask = FacilityDevice | FacilityServer

// activateOnce routes change events to the correlator and subscribes to
// sink and server changes. The flag is set before the request is issued,
// so later discoveries never subscribe again.
func (w *Watcher) activateOnce() {
	if w.subscribed {
		return
	}
	w.subscribed = true

	w.server.SetEventHandler(onLoop(w.loop, w.onEvent))
	w.observer.QueryDispatched(QuerySubscribe)
	w.server.Subscribe(subscribeMask, onLoop(w.loop, w.onSubscribed))
}

// onSubscribed handles completion of the subscribe request.
func (w *Watcher) onSubscribed(err error) {
	if err != nil {
		w.fail(fmt.Errorf("%w: %w", ErrSubscribe, err))
		return
	}
	w.logger.Debug("subscribed to change events", "mask", subscribeMask)
}
