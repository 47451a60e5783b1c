// Package relay forwards volume updates to a websocket endpoint, e.g. a
// dashboard or a remote status bar.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/volwatch/internal/volume"
	"github.com/jmylchreest/volwatch/internal/watcher"
)

const (
	writeWait     = 10 * time.Second
	redialBackoff = 2 * time.Second
	queueSize     = 16
)

// Message is the JSON frame sent for every update.
type Message struct {
	Type   string `json:"type"`
	Volume int    `json:"volume"`
	Muted  bool   `json:"muted"`
	Device string `json:"device"`
}

// NewMessage converts an update to a relay frame.
func NewMessage(u volume.Update) Message {
	return Message{
		Type:   "volume",
		Volume: u.Percent,
		Muted:  u.Muted,
		Device: u.Device,
	}
}

// Publisher is a watcher.Sink that writes updates to a websocket. It dials
// lazily and redials after failures; updates that cannot be delivered are
// dropped. Emit never blocks.
type Publisher struct {
	url     string
	logger  *slog.Logger
	dialer  *websocket.Dialer
	backoff time.Duration

	send chan Message
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	// owned by the writer goroutine
	conn     *websocket.Conn
	lastDial time.Time
}

var _ watcher.Sink = (*Publisher)(nil)

// New starts a publisher for the given ws:// or wss:// URL.
func New(url string, logger *slog.Logger) *Publisher {
	return newPublisher(url, redialBackoff, logger)
}

func newPublisher(url string, backoff time.Duration, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:     url,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
		backoff: backoff,
		send:    make(chan Message, queueSize),
		done:    make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Emit queues u for delivery.
func (p *Publisher) Emit(u volume.Update) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	select {
	case p.send <- NewMessage(u):
	default:
		p.logger.Debug("relay queue full, dropping update", "volume", u.Percent)
	}
	return nil
}

// Close sends a close frame and disconnects.
func (p *Publisher) Close() error {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
	return nil
}

func (p *Publisher) run() {
	defer p.wg.Done()
	defer p.disconnect()

	for {
		select {
		case msg := <-p.send:
			p.publish(msg)
		case <-p.done:
			return
		}
	}
}

func (p *Publisher) publish(msg Message) {
	if p.conn == nil {
		if !p.lastDial.IsZero() && time.Since(p.lastDial) < p.backoff {
			p.logger.Debug("relay offline, dropping update", "url", p.url)
			return
		}
		if err := p.connect(); err != nil {
			p.logger.Warn("failed to connect to relay", "url", p.url, "error", err)
			return
		}
	}

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := p.conn.WriteJSON(msg); err != nil {
		p.logger.Warn("failed to write to relay", "url", p.url, "error", err)
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) connect() error {
	p.lastDial = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return err
	}
	p.logger.Debug("connected to relay", "url", p.url)

	// Drain incoming frames so control messages (ping, close) are
	// processed; a read error closes the connection and the next write
	// triggers a redial.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				_ = conn.Close()
				return
			}
		}
	}()

	p.conn = conn
	return nil
}

func (p *Publisher) disconnect() {
	if p.conn == nil {
		return
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = p.conn.Close()
	p.conn = nil
}
