package watcher

import "github.com/jmylchreest/volwatch/internal/volume"

// onDeviceInfo reports a sink snapshot if it still describes the default
// sink. The default may have moved while the query was in flight; such
// results are dropped.
func (w *Watcher) onDeviceInfo(reply DeviceReply) {
	if reply.Err != nil {
		w.logger.Debug("device query failed", "error", reply.Err)
		return
	}
	if reply.End {
		return
	}

	if !w.hasDefault || reply.Device.Name != w.defaultSink {
		w.observer.StaleDiscarded()
		w.logger.Debug("discarding stale device info", "device", reply.Device.Name, "default", w.defaultSink)
		return
	}

	u := volume.NewUpdate(reply.Device.Name, reply.Device.Volumes, reply.Device.Muted)
	if err := w.sink.Emit(u); err != nil {
		w.logger.Warn("failed to write update", "error", err)
	}
	w.observer.UpdateEmitted()

	if w.once {
		w.loop.Quit(0)
	}
}
