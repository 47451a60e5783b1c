package pulse

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

// protocolVersion is what the fake server negotiates. Fields introduced
// after it are left off the wire.
const protocolVersion = 12

const (
	fakeDefaultSink = "alsa_output.pci-0000_00_1f.3.analog-stereo"
	errNoEntity     = 5
)

// tagstruct builds native protocol payloads.
type tagstruct []byte

func (t tagstruct) u32(v uint32) tagstruct {
	return binary.BigEndian.AppendUint32(append(t, 'L'), v)
}

func (t tagstruct) str(s string) tagstruct {
	if s == "" {
		return append(t, 'N')
	}
	return append(append(append(t, 't'), s...), 0)
}

func (t tagstruct) boolean(b bool) tagstruct {
	if b {
		return append(t, '1')
	}
	return append(t, '0')
}

func (t tagstruct) sampleSpec(channels byte) tagstruct {
	return binary.BigEndian.AppendUint32(append(t, 'a', 3, channels), 44100)
}

func (t tagstruct) channelMap(channels byte) tagstruct {
	t = append(t, 'm', channels)
	for i := byte(0); i < channels; i++ {
		t = append(t, i+1)
	}
	return t
}

func (t tagstruct) volumes(v ...uint32) tagstruct {
	t = append(t, 'v', byte(len(v)))
	for _, x := range v {
		t = binary.BigEndian.AppendUint32(t, x)
	}
	return t
}

func (t tagstruct) usec(v uint64) tagstruct {
	return binary.BigEndian.AppendUint64(append(t, 'U'), v)
}

// fakeSink is a sink known to the fake server.
type fakeSink struct {
	index   uint32
	volumes []uint32
	muted   bool
}

// fakeServer answers the handful of commands the client sends over a
// unix socket. After a subscribe request it pushes one sink change event.
type fakeServer struct {
	path       string
	listener   net.Listener
	sinks      map[string]fakeSink
	subscribed chan proto.SubscriptionMask
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "native")
	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	s := &fakeServer{
		path:     path,
		listener: l,
		sinks: map[string]fakeSink{
			fakeDefaultSink: {index: 3, volumes: []uint32{32768, 65536}, muted: true},
		},
		subscribed: make(chan proto.SubscriptionMask, 1),
	}
	go s.serve()
	return s
}

func (s *fakeServer) serve() {
	conn, err := s.listener.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		body, err := readFrame(conn)
		if err != nil {
			return
		}
		if len(body) < 10 {
			return
		}
		cmd := binary.BigEndian.Uint32(body[1:5])
		tag := binary.BigEndian.Uint32(body[6:10])
		if err := s.handle(conn, cmd, tag, body[10:]); err != nil {
			return
		}
	}
}

func (s *fakeServer) handle(w io.Writer, cmd, tag uint32, args []byte) error {
	switch cmd {
	case proto.OpAuth:
		return reply(w, tag, tagstruct{}.u32(protocolVersion))
	case proto.OpSetClientName:
		return reply(w, tag, tagstruct{}.u32(1))
	case proto.OpGetServerInfo:
		return reply(w, tag, tagstruct{}.
			str("pulseaudio").str("16.1").str("tester").str("host").
			sampleSpec(2).str(fakeDefaultSink).str("").u32(0))
	case proto.OpGetSinkInfo:
		name := sinkNameArg(args)
		sink, ok := s.sinks[name]
		if !ok {
			return replyError(w, tag, errNoEntity)
		}
		channels := byte(len(sink.volumes))
		return reply(w, tag, tagstruct{}.
			u32(sink.index).str(name).str("Built-in Audio").
			sampleSpec(channels).channelMap(channels).u32(7).
			volumes(sink.volumes...).boolean(sink.muted).
			u32(1).str(name+".monitor").usec(0).str("module-alsa-card.c").u32(0))
	case proto.OpSubscribe:
		s.subscribed <- proto.SubscriptionMask(binary.BigEndian.Uint32(args[1:5]))
		if err := reply(w, tag, nil); err != nil {
			return err
		}
		event := tagstruct{}.u32(proto.OpSubscribeEvent).u32(0xffffffff).
			u32(uint32(proto.EventSink | proto.EventChange)).u32(3)
		return writeFrame(w, event)
	default:
		return replyError(w, tag, 1)
	}
}

// sinkNameArg extracts the name from GET_SINK_INFO arguments: an index
// followed by a string.
func sinkNameArg(args []byte) string {
	if len(args) < 6 || args[5] != 't' {
		return ""
	}
	rest := args[6:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		return string(rest[:i])
	}
	return ""
}

func reply(w io.Writer, tag uint32, payload tagstruct) error {
	return writeFrame(w, append(tagstruct{}.u32(proto.OpReply).u32(tag), payload...))
}

func replyError(w io.Writer, tag, code uint32) error {
	return writeFrame(w, tagstruct{}.u32(proto.OpError).u32(tag).u32(code))
}

func writeFrame(w io.Writer, body []byte) error {
	var hdr [20]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(len(body)))
	binary.BigEndian.PutUint32(hdr[4:], 0xffffffff)
	_, err := w.Write(append(hdr[:], body...))
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [20]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint32(hdr[0:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}
