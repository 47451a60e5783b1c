package pulse

import (
	"github.com/jfreymuth/pulse/proto"

	"github.com/jmylchreest/volwatch/internal/watcher"
)

// subscriptionMask converts watcher facilities into a wire mask.
func subscriptionMask(f watcher.Facility) proto.SubscriptionMask {
	mask := proto.SubscriptionMaskNull
	if f&watcher.FacilityDevice != 0 {
		mask |= proto.SubscriptionMaskSink
	}
	if f&watcher.FacilityServer != 0 {
		mask |= proto.SubscriptionMaskServer
	}
	return mask
}

// decodeEvent converts a wire event word and object index into an event.
// Facilities other than sink and server decode as FacilityOther.
func decodeEvent(word proto.SubscriptionEventType, index uint32) watcher.Event {
	ev := watcher.Event{Index: index}

	switch word.GetFacility() {
	case proto.EventSink:
		ev.Facility = watcher.FacilityDevice
	case proto.EventServer:
		ev.Facility = watcher.FacilityServer
	default:
		ev.Facility = watcher.FacilityOther
	}

	switch word.GetType() {
	case proto.EventNew:
		ev.Kind = watcher.EventNew
	case proto.EventChange:
		ev.Kind = watcher.EventChange
	case proto.EventRemove:
		ev.Kind = watcher.EventRemove
	default:
		// 0x30 is unused by the protocol; treat it like an object event
		// the correlator ignores.
		ev.Kind = watcher.EventNew
	}
	return ev
}
