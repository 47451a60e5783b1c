package watcher

import (
	"context"
	"errors"

	"github.com/jmylchreest/volwatch/internal/volume"
)

// Fatal conditions. Each one ends the loop with exit status 1.
var (
	ErrConnect          = errors.New("could not connect to server")
	ErrConnectionFailed = errors.New("server connection failed")
	ErrDiscovery        = errors.New("server info request failed")
	ErrSubscribe        = errors.New("subscribe request failed")
)

// ConnState mirrors the lifecycle of the server connection.
type ConnState int

const (
	StateUnconnected ConnState = iota
	StateConnecting
	StateReady
	StateFailed
	StateTerminated
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Facility is a notification category. Values combine into a subscription
// mask; an event carries exactly one facility, or FacilityOther.
type Facility uint32

const (
	FacilityOther  Facility = 0
	FacilityDevice Facility = 1
	FacilityServer Facility = 2
)

// String returns the facility name.
func (f Facility) String() string {
	switch f {
	case FacilityDevice:
		return "device"
	case FacilityServer:
		return "server"
	case FacilityDevice | FacilityServer:
		return "device|server"
	default:
		return "other"
	}
}

// EventKind says what happened to the object named by an event.
type EventKind int

const (
	EventNew EventKind = iota
	EventChange
	EventRemove
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventNew:
		return "new"
	case EventChange:
		return "change"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a change notification pushed by the server after subscribing.
type Event struct {
	Facility Facility
	Kind     EventKind
	Index    uint32
}

// ServerInfo is the result of a discovery request.
type ServerInfo struct {
	DefaultSink string
}

// DeviceInfo is a point-in-time snapshot of one sink.
type DeviceInfo struct {
	Name    string
	Volumes []uint32
	Muted   bool
}

// DeviceReply is one element of a device query's result stream. The stream
// ends with a reply that has End set; a failed query ends with Err set.
type DeviceReply struct {
	Device DeviceInfo
	End    bool
	Err    error
}

// Server is the audio server connection. Callbacks may be invoked from any
// goroutine; the Watcher moves them onto its loop.
type Server interface {
	// Connect starts connecting and reports state changes to onState. A
	// returned error means the attempt could not be started at all.
	Connect(ctx context.Context, onState func(ConnState)) error
	// ServerInfo requests the server's current defaults.
	ServerInfo(cb func(ServerInfo, error))
	// DeviceInfo requests the sink with the given name.
	DeviceInfo(name string, cb func(DeviceReply))
	// SetEventHandler sets the recipient of subscribed change events.
	SetEventHandler(h func(Event))
	// Subscribe enables change events for the facilities in mask.
	Subscribe(mask Facility, cb func(error))
	// Close disconnects and releases the connection.
	Close() error
}

// Sink receives accepted volume updates.
type Sink interface {
	Emit(u volume.Update) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(u volume.Update) error

// Emit calls f(u).
func (f SinkFunc) Emit(u volume.Update) error { return f(u) }

// Observer is notified of correlation decisions, for metrics.
type Observer interface {
	EventReceived(ev Event)
	QueryDispatched(query string)
	StaleDiscarded()
	UpdateEmitted()
	DefaultChanged()
}

// Query names passed to Observer.QueryDispatched.
const (
	QueryServerInfo = "server_info"
	QueryDeviceInfo = "device_info"
	QuerySubscribe  = "subscribe"
)

type nopObserver struct{}

func (nopObserver) EventReceived(Event)     {}
func (nopObserver) QueryDispatched(string) {}
func (nopObserver) StaleDiscarded()        {}
func (nopObserver) UpdateEmitted()         {}
func (nopObserver) DefaultChanged()        {}
