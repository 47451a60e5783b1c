package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmylchreest/volwatch/internal/adapter/output"
	"github.com/jmylchreest/volwatch/internal/audio"
	"github.com/jmylchreest/volwatch/internal/config"
	"github.com/jmylchreest/volwatch/internal/metrics"
	"github.com/jmylchreest/volwatch/internal/notify"
	"github.com/jmylchreest/volwatch/internal/pulse"
	"github.com/jmylchreest/volwatch/internal/relay"
	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

// session owns one watcher run and the optional sinks around it. All
// mutation after start happens on the watcher loop, so Emit and apply
// never race.
type session struct {
	cfg    *config.Config
	logger *slog.Logger

	primary  watcher.Sink
	writer   *output.Writer
	notifier *notify.Notifier
	feedback *audio.Feedback
	relay    *relay.Publisher
	metrics  *metrics.Metrics

	watcher *watcher.Watcher
}

// sessionOptions selects what a command needs from a session.
type sessionOptions struct {
	// Primary receives every update. Required.
	Primary watcher.Sink
	// Writer is Primary's formatter target, if any; it follows config reloads.
	Writer *output.Writer
	// Extras enables the notify, sound, relay and metrics sinks.
	Extras bool
	Once   bool
}

func newSession(c *config.Config, opts sessionOptions, log *slog.Logger) *session {
	s := &session{
		cfg:     c,
		logger:  log,
		primary: opts.Primary,
		writer:  opts.Writer,
	}

	wopts := watcher.Options{Logger: log, Once: opts.Once}
	if opts.Extras {
		s.openExtras()
		if s.metrics != nil {
			wopts.Observer = s.metrics
		}
	}

	server := pulse.NewClient(pulse.Options{
		Server:     c.Server.Address,
		ClientName: c.Server.ClientName,
		CookiePath: c.Server.Cookie,
	}, log)
	s.watcher = watcher.New(server, output.Fanout(s.primary, watcher.SinkFunc(s.emitExtras)), wopts)
	return s
}

// openExtras creates the sinks enabled in the current config. A sink that
// cannot start is logged and left off.
func (s *session) openExtras() {
	if s.cfg.Notify.Enabled {
		s.enableNotify()
	}
	if s.cfg.Sound.Enabled {
		s.enableSound()
	}
	if s.cfg.Relay.URL != "" {
		s.relay = relay.New(s.cfg.Relay.URL, s.logger)
	}
	if s.cfg.Metrics.Address != "" {
		s.metrics = metrics.New()
	}
}

func (s *session) enableNotify() {
	n, err := notify.New(notifyOptions(s.cfg), s.logger)
	if err != nil {
		s.logger.Warn("notifications disabled", "error", err)
		return
	}
	s.notifier = n
}

func (s *session) enableSound() {
	f, err := audio.NewFeedback(soundOptions(s.cfg), s.logger)
	if err != nil {
		s.logger.Warn("feedback sound disabled", "error", err)
		return
	}
	s.feedback = f
}

func notifyOptions(c *config.Config) notify.Options {
	return notify.Options{Timeout: c.Notify.Timeout.Duration(), OnStartup: c.Notify.OnStartup}
}

func soundOptions(c *config.Config) audio.Options {
	return audio.Options{File: c.SoundFile(), Volume: c.Sound.Volume}
}

// emitExtras forwards u to the enabled optional sinks.
func (s *session) emitExtras(u volume.Update) error {
	var errs []error
	if s.notifier != nil && s.cfg.Notify.Enabled {
		errs = append(errs, s.notifier.Emit(u))
	}
	if s.feedback != nil && s.cfg.Sound.Enabled {
		errs = append(errs, s.feedback.Emit(u))
	}
	if s.relay != nil {
		errs = append(errs, s.relay.Emit(u))
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.Emit(u))
	}
	return errors.Join(errs...)
}

// run starts the metrics endpoint and the config watcher when enabled,
// then blocks in the watcher loop.
func (s *session) run(ctx context.Context, reload bool) (int, error) {
	if s.metrics != nil {
		go func() {
			if err := s.metrics.Serve(ctx, s.cfg.Metrics.Address, s.logger); err != nil {
				s.logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
	}

	if reload {
		stop := s.watchConfig()
		defer stop()
	}

	return s.watcher.Run(ctx)
}

// watchConfig hot-reloads the config file. Reloads are applied on the
// watcher loop.
func (s *session) watchConfig() func() {
	cw, err := config.NewWatcher(globalOpts.configPath, func(next *config.Config) {
		s.watcher.Post(func() { s.apply(next) })
	}, func(err error) {
		s.logger.Warn("config reload failed, keeping previous settings", "error", err)
	}, s.logger)
	if err != nil {
		s.logger.Warn("config hot reload unavailable", "error", err)
		return func() {}
	}
	if err := cw.Start(); err != nil {
		s.logger.Warn("config hot reload unavailable", "error", err)
		return func() {}
	}
	return func() {
		if err := cw.Stop(); err != nil {
			s.logger.Debug("error stopping config watcher", "error", err)
		}
	}
}

// apply switches to a reloaded config. Server and metrics settings only
// take effect on restart.
func (s *session) apply(next *config.Config) {
	prev := s.cfg

	// Command line flags still win over the file.
	next.Server = prev.Server
	if globalOpts.format != "" || globalOpts.template != "" {
		next.Output = prev.Output
	}
	next.Metrics = prev.Metrics

	if s.writer != nil && next.Output != prev.Output {
		f, err := output.NewFormatter(output.FormatType(next.Output.Format),
			output.FormatterOptions{Template: next.Output.Template})
		if err != nil {
			s.logger.Warn("keeping previous output format", "error", err)
			next.Output = prev.Output
		} else {
			s.writer.SetFormatter(f)
		}
	}

	s.cfg = next
	s.applyNotify(prev)
	s.applySound(prev)
	s.applyRelay(prev)
	s.logger.Info("configuration reloaded")
}

func (s *session) applyNotify(prev *config.Config) {
	if !s.cfg.Notify.Enabled {
		return
	}
	if s.notifier == nil {
		s.enableNotify()
		return
	}
	if s.cfg.Notify != prev.Notify {
		s.notifier.SetOptions(notifyOptions(s.cfg))
	}
}

func (s *session) applySound(prev *config.Config) {
	if !s.cfg.Sound.Enabled {
		return
	}
	if s.feedback == nil {
		s.enableSound()
		return
	}
	if s.cfg.Sound != prev.Sound {
		if err := s.feedback.SetOptions(soundOptions(s.cfg)); err != nil {
			s.logger.Warn("keeping previous feedback sound", "error", err)
		}
	}
}

func (s *session) applyRelay(prev *config.Config) {
	if s.cfg.Relay.URL == prev.Relay.URL {
		return
	}
	if old := s.relay; old != nil {
		s.relay = nil
		go func() {
			if err := old.Close(); err != nil {
				s.logger.Debug("error closing relay", "error", err)
			}
		}()
	}
	if s.cfg.Relay.URL != "" {
		s.relay = relay.New(s.cfg.Relay.URL, s.logger)
	}
}

// Close releases the optional sinks.
func (s *session) Close() error {
	var errs []error
	if s.notifier != nil {
		errs = append(errs, s.notifier.Close())
	}
	if s.feedback != nil {
		errs = append(errs, s.feedback.Close())
	}
	if s.relay != nil {
		errs = append(errs, s.relay.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to close sinks: %w", err)
	}
	return nil
}

// newOutputWriter builds the stdout writer for the configured format.
func newOutputWriter(w io.Writer, c *config.Config) (*output.Writer, error) {
	f, err := output.NewFormatter(output.FormatType(c.Output.Format),
		output.FormatterOptions{Template: c.Output.Template})
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, f), nil
}
