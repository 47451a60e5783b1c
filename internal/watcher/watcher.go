package watcher

import (
	"context"
	"fmt"
	"log/slog"
)

// Options configures a Watcher.
type Options struct {
	Logger   *slog.Logger
	Observer Observer

	// Once stops the loop with status 0 after the first reported update.
	Once bool
}

// Watcher is the process-wide state: the server connection, the current
// default sink and whether change events have been enabled.
type Watcher struct {
	loop     *Loop
	server   Server
	sink     Sink
	logger   *slog.Logger
	observer Observer
	once     bool

	// defaultSink is authoritative only while hasDefault is set. It is
	// written by onServerInfo alone.
	defaultSink string
	hasDefault  bool

	// subscribed goes false to true once, after the first discovery.
	subscribed bool

	// err records the fatal condition that stopped the loop.
	err error
}

// New creates a Watcher that reports to sink.
func New(server Server, sink Sink, opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &Watcher{
		loop:     NewLoop(),
		server:   server,
		sink:     sink,
		logger:   logger,
		observer: observer,
		once:     opts.Once,
	}
}

// Run connects to the server and processes events until a fatal error,
// ctx cancellation, or (in Once mode) the first update. It returns the
// process exit status and the fatal error, if any.
func (w *Watcher) Run(ctx context.Context) (int, error) {
	if err := w.start(ctx); err != nil {
		w.logger.Error("could not connect to server", "error", err)
		return 1, err
	}
	defer func() {
		if err := w.server.Close(); err != nil {
			w.logger.Debug("error closing server connection", "error", err)
		}
	}()

	status := w.loop.Run(ctx)
	return status, w.err
}

// Post runs fn on the loop between handlers. It returns false once the
// loop has exited.
func (w *Watcher) Post(fn func()) bool {
	return w.loop.Post(fn)
}

// start begins connecting; state changes are handled on the loop.
func (w *Watcher) start(ctx context.Context) error {
	if err := w.server.Connect(ctx, onLoop(w.loop, w.onStateChange)); err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return nil
}

// fail records err and stops the loop with status 1.
func (w *Watcher) fail(err error) {
	w.logger.Error("fatal error, exiting", "error", err)
	if w.err == nil {
		w.err = err
	}
	w.loop.Quit(1)
}

// discover requests server info; the result is handled by onServerInfo.
func (w *Watcher) discover() {
	w.observer.QueryDispatched(QueryServerInfo)
	w.server.ServerInfo(onLoop2(w.loop, w.onServerInfo))
}

// queryDevice requests the named sink; the result is handled by
// onDeviceInfo.
func (w *Watcher) queryDevice(name string) {
	w.observer.QueryDispatched(QueryDeviceInfo)
	w.server.DeviceInfo(name, onLoop(w.loop, w.onDeviceInfo))
}
