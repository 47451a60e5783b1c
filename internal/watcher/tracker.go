package watcher

import "fmt"

// onServerInfo is the only writer of the default sink name. Repeated
// reports of the same default are ignored; a new default enables change
// events on first discovery and then queries the new sink exactly once.
func (w *Watcher) onServerInfo(info ServerInfo, err error) {
	if err != nil {
		w.fail(fmt.Errorf("%w: %w", ErrDiscovery, err))
		return
	}

	if w.hasDefault && w.defaultSink == info.DefaultSink {
		return
	}

	w.logger.Debug("default sink changed", "previous", w.defaultSink, "current", info.DefaultSink)
	w.defaultSink = info.DefaultSink
	w.hasDefault = true
	w.observer.DefaultChanged()

	if !w.subscribed {
		w.activateOnce()
	}

	w.queryDevice(w.defaultSink)
}

