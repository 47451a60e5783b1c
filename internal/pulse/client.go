package pulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jfreymuth/pulse/proto"

	"github.com/jmylchreest/volwatch/internal/watcher"
)

// DefaultClientName is announced as application.name.
const DefaultClientName = "volwatch"

// requestTimeout bounds every request, including the handshake.
const requestTimeout = 5 * time.Second

// undefinedIndex selects a sink by name instead of index (PA_INVALID_INDEX).
const undefinedIndex uint32 = 0xffffffff

var errNotConnected = errors.New("not connected to server")

// Options configures the connection.
type Options struct {
	Server     string // server string; empty uses the environment
	ClientName string
	CookiePath string // empty searches the default locations
}

// Client is a native protocol connection implementing watcher.Server.
type Client struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	conn     net.Conn
	client   *proto.Client
	onState  func(watcher.ConnState)
	onEvent  func(watcher.Event)
	closed   bool
	finished bool // a terminal state has been reported
}

var _ watcher.Server = (*Client)(nil)

// NewClient creates an unconnected client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ClientName == "" {
		opts.ClientName = DefaultClientName
	}
	return &Client{
		opts:   opts,
		logger: logger,
	}
}

// Connect resolves the server address and cookie, then dials and
// authenticates in the background. Address and cookie problems are
// returned directly; everything later is reported as StateFailed.
func (c *Client) Connect(ctx context.Context, onState func(watcher.ConnState)) error {
	addr, err := ResolveAddress(c.opts.Server)
	if err != nil {
		return err
	}
	cookie, err := LoadCookie(c.opts.CookiePath)
	if err != nil {
		return fmt.Errorf("failed to load cookie: %w", err)
	}

	c.mu.Lock()
	c.onState = onState
	c.mu.Unlock()

	go c.connect(ctx, addr, cookie)
	return nil
}

func (c *Client) connect(ctx context.Context, addr Address, cookie []byte) {
	c.setState(watcher.StateConnecting)
	c.logger.Debug("connecting to server", "address", addr.String())

	var d net.Dialer
	conn, err := d.DialContext(ctx, addr.Network, addr.Addr)
	if err != nil {
		c.logger.Error("failed to connect to server", "address", addr.String(), "error", err)
		c.finish(watcher.StateFailed)
		return
	}

	client := &proto.Client{}
	client.Callback = c.dispatch
	client.SetTimeout(requestTimeout)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		c.finish(watcher.StateTerminated)
		return
	}
	c.conn = conn
	c.client = client
	c.mu.Unlock()

	client.Open(&monitoredConn{Conn: conn, onError: c.connectionLost})

	var auth proto.AuthReply
	if err := client.Request(&proto.Auth{Version: client.Version(), Cookie: cookie}, &auth); err != nil {
		c.logger.Error("authentication failed", "error", err)
		c.abort()
		return
	}
	client.SetVersion(auth.Version)

	props := proto.PropList{
		"application.name": proto.PropListString(c.opts.ClientName),
	}
	if err := client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{}); err != nil {
		c.logger.Error("failed to set client name", "error", err)
		c.abort()
		return
	}

	c.logger.Debug("connected to server", "address", addr.String())
	c.setState(watcher.StateReady)
}

// ServerInfo requests the server defaults.
func (c *Client) ServerInfo(cb func(watcher.ServerInfo, error)) {
	client := c.protoClient()
	go func() {
		if client == nil {
			cb(watcher.ServerInfo{}, errNotConnected)
			return
		}
		var reply proto.GetServerInfoReply
		if err := client.Request(&proto.GetServerInfo{}, &reply); err != nil {
			cb(watcher.ServerInfo{}, err)
			return
		}
		cb(watcher.ServerInfo{DefaultSink: reply.DefaultSinkName}, nil)
	}()
}

// DeviceInfo requests the sink called name. The reply stream is one
// snapshot followed by the end marker, or only the end marker with an
// error.
func (c *Client) DeviceInfo(name string, cb func(watcher.DeviceReply)) {
	client := c.protoClient()
	go func() {
		if client == nil {
			cb(watcher.DeviceReply{End: true, Err: errNotConnected})
			return
		}
		var reply proto.GetSinkInfoReply
		err := client.Request(&proto.GetSinkInfo{SinkIndex: undefinedIndex, SinkName: name}, &reply)
		if err != nil {
			cb(watcher.DeviceReply{End: true, Err: fmt.Errorf("sink %q: %w", name, err)})
			return
		}
		cb(watcher.DeviceReply{Device: watcher.DeviceInfo{
			Name:    reply.SinkName,
			Volumes: []uint32(reply.ChannelVolumes),
			Muted:   reply.Mute,
		}})
		cb(watcher.DeviceReply{End: true})
	}()
}

// SetEventHandler sets the recipient of subscription events.
func (c *Client) SetEventHandler(h func(watcher.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = h
}

// Subscribe enables events for the given facilities.
func (c *Client) Subscribe(mask watcher.Facility, cb func(error)) {
	client := c.protoClient()
	go func() {
		if client == nil {
			cb(errNotConnected)
			return
		}
		req := &proto.Subscribe{Mask: subscriptionMask(mask)}
		cb(client.Request(req, nil))
	}()
}

// Close disconnects. The connection reports StateTerminated afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) protoClient() *proto.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// dispatch receives unsolicited server messages.
func (c *Client) dispatch(msg interface{}) {
	switch m := msg.(type) {
	case *proto.SubscribeEvent:
		c.mu.Lock()
		h := c.onEvent
		c.mu.Unlock()
		if h != nil {
			h(decodeEvent(m.Event, m.Index))
		}
	default:
		c.logger.Debug("ignoring server message", "type", fmt.Sprintf("%T", msg))
	}
}

// abort drops a connection that failed during setup.
func (c *Client) abort() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	c.finish(watcher.StateFailed)
}

// connectionLost is called once when reading from the socket fails.
func (c *Client) connectionLost(err error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		c.finish(watcher.StateTerminated)
		return
	}
	c.logger.Error("server connection lost", "error", err)
	c.finish(watcher.StateFailed)
}

func (c *Client) setState(state watcher.ConnState) {
	c.mu.Lock()
	onState := c.onState
	finished := c.finished
	c.mu.Unlock()

	if onState != nil && !finished {
		onState(state)
	}
}

// finish reports a terminal state at most once.
func (c *Client) finish(state watcher.ConnState) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	onState := c.onState
	c.mu.Unlock()

	if onState != nil {
		onState(state)
	}
}

// monitoredConn reports the first read error, which is how a dropped
// server connection becomes visible.
type monitoredConn struct {
	net.Conn
	once    sync.Once
	onError func(error)
}

func (m *monitoredConn) Read(p []byte) (int, error) {
	n, err := m.Conn.Read(p)
	if err != nil {
		m.once.Do(func() { m.onError(err) })
	}
	return n, err
}
