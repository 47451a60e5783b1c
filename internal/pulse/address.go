package pulse

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPort is the native protocol's TCP port.
const DefaultPort = "4713"

// ErrNoServer is returned when no server address can be determined.
var ErrNoServer = errors.New("no pulseaudio server address found")

// Address is a dialable server endpoint.
type Address struct {
	Network string // "unix", "tcp", "tcp4" or "tcp6"
	Addr    string
}

// String returns the address in server-string form.
func (a Address) String() string {
	return a.Network + ":" + a.Addr
}

// ResolveAddress determines where to connect. An explicit server string
// wins, then $PULSE_SERVER, then the per-user runtime socket.
func ResolveAddress(server string) (Address, error) {
	if server == "" {
		server = os.Getenv("PULSE_SERVER")
	}
	if server != "" {
		return ParseServerString(server)
	}

	if dir := os.Getenv("PULSE_RUNTIME_PATH"); dir != "" {
		return Address{Network: "unix", Addr: filepath.Join(dir, "native")}, nil
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return Address{Network: "unix", Addr: filepath.Join(dir, "pulse", "native")}, nil
	}
	return Address{}, ErrNoServer
}

// ParseServerString parses a PulseAudio server string. Only the first of
// several space-separated entries is used. Accepted forms are
// "unix:/path", "/path", "tcp:host[:port]", "tcp4:...", "tcp6:..." and
// "host[:port]". A leading "{machine-id}" qualifier is skipped.
func ParseServerString(server string) (Address, error) {
	fields := strings.Fields(server)
	if len(fields) == 0 {
		return Address{}, ErrNoServer
	}
	entry := fields[0]

	if strings.HasPrefix(entry, "{") {
		end := strings.Index(entry, "}")
		if end < 0 {
			return Address{}, fmt.Errorf("invalid server string %q: unterminated machine id", server)
		}
		entry = entry[end+1:]
	}

	switch {
	case strings.HasPrefix(entry, "unix:"):
		path := strings.TrimPrefix(entry, "unix:")
		if path == "" {
			return Address{}, fmt.Errorf("invalid server string %q: empty socket path", server)
		}
		return Address{Network: "unix", Addr: path}, nil
	case strings.HasPrefix(entry, "/"):
		return Address{Network: "unix", Addr: entry}, nil
	case strings.HasPrefix(entry, "tcp4:"):
		return tcpAddress("tcp4", strings.TrimPrefix(entry, "tcp4:"), server)
	case strings.HasPrefix(entry, "tcp6:"):
		return tcpAddress("tcp6", strings.TrimPrefix(entry, "tcp6:"), server)
	case strings.HasPrefix(entry, "tcp:"):
		return tcpAddress("tcp", strings.TrimPrefix(entry, "tcp:"), server)
	default:
		return tcpAddress("tcp", entry, server)
	}
}

func tcpAddress(network, hostport, server string) (Address, error) {
	if hostport == "" {
		return Address{}, fmt.Errorf("invalid server string %q: empty host", server)
	}

	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port given; bracketed IPv6 literals keep their brackets off.
		host = strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
		port = DefaultPort
	}
	if host == "" {
		return Address{}, fmt.Errorf("invalid server string %q: empty host", server)
	}
	return Address{Network: network, Addr: net.JoinHostPort(host, port)}, nil
}
