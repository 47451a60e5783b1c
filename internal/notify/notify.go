// Package notify shows volume changes as an on-screen display through the
// desktop notification daemon (org.freedesktop.Notifications).
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the notification daemon's bus name.
	DBusBusName = "org.freedesktop.Notifications"

	appName = "volwatch"
)

// caller is the part of dbus.BusObject the notifier needs.
type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Options configures the OSD.
type Options struct {
	Timeout   time.Duration // 0 lets the daemon pick
	OnStartup bool          // also show the initial reading
}

// Notifier is a watcher.Sink that shows each update as a notification
// bubble replacing the previous one. Emit never blocks; when updates arrive
// faster than the daemon answers only the newest is shown.
type Notifier struct {
	mu         sync.Mutex
	logger     *slog.Logger
	obj        caller
	opts       Options
	replacesID uint32
	seen       bool

	pending chan volume.Update
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

var _ watcher.Sink = (*Notifier)(nil)

// New connects to the session bus and starts the notifier.
func New(opts Options, logger *slog.Logger) (*Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return newNotifier(conn.Object(DBusBusName, DBusPath), opts, logger), nil
}

func newNotifier(obj caller, opts Options, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		logger:  logger,
		obj:     obj,
		opts:    opts,
		pending: make(chan volume.Update, 1),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

// SetOptions replaces the options for subsequent updates.
func (n *Notifier) SetOptions(opts Options) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opts = opts
}

// Emit queues u for display. The first update is skipped unless
// OnStartup is set.
func (n *Notifier) Emit(u volume.Update) error {
	n.mu.Lock()
	first := !n.seen
	n.seen = true
	onStartup := n.opts.OnStartup
	n.mu.Unlock()

	if first && !onStartup {
		return nil
	}

	for {
		select {
		case n.pending <- u:
			return nil
		case <-n.done:
			return nil
		default:
		}
		// Drop the stale queued update in favour of u.
		select {
		case <-n.pending:
		default:
		}
	}
}

// Close stops the notifier. Queued updates are discarded.
func (n *Notifier) Close() error {
	n.once.Do(func() { close(n.done) })
	n.wg.Wait()
	return nil
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case u := <-n.pending:
			if err := n.show(u); err != nil {
				n.logger.Warn("failed to show volume notification", "error", err)
			}
		case <-n.done:
			return
		}
	}
}

// show sends one Notify call and remembers the returned id so the next
// bubble replaces this one.
func (n *Notifier) show(u volume.Update) error {
	n.mu.Lock()
	replacesID := n.replacesID
	timeout := n.opts.Timeout
	n.mu.Unlock()

	expire := int32(-1)
	if timeout > 0 {
		expire = int32(timeout.Milliseconds())
	}

	var id uint32
	err := n.obj.Call(DBusInterface+".Notify", 0,
		appName,
		replacesID,
		Icon(u),
		Summary(u),
		u.Device,
		[]string{},
		Hints(u),
		expire,
	).Store(&id)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.replacesID = id
	n.mu.Unlock()

	n.logger.Debug("volume notification shown", "id", id, "volume", u.Percent, "muted", u.Muted)
	return nil
}

// Summary returns the bubble title for u.
func Summary(u volume.Update) string {
	if u.Muted {
		return "Volume muted"
	}
	return fmt.Sprintf("Volume %d%%", u.Percent)
}

// Icon returns the freedesktop icon name for u's level.
func Icon(u volume.Update) string {
	return "audio-volume-" + u.Level()
}

// Hints returns the notification hints. "value" drives the progress bar
// in daemons that support it (dunst, mako, swaync) and the synchronous
// hint makes them update the bubble in place.
func Hints(u volume.Update) map[string]dbus.Variant {
	value := int32(max(0, min(u.Percent, 100)))
	if u.Muted {
		value = 0
	}
	return map[string]dbus.Variant{
		"value":                           dbus.MakeVariant(value),
		"x-canonical-private-synchronous": dbus.MakeVariant("volume"),
		"category":                        dbus.MakeVariant("device"),
		"transient":                       dbus.MakeVariant(true),
		"urgency":                         dbus.MakeVariant(byte(0)),
		"desktop-entry":                   dbus.MakeVariant(appName),
	}
}
