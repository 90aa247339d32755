package rpc

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
)

// fakeServer plays the external process on one end of a net.Pipe.
// Outbound frames go through a writer goroutine so that replies never
// block the reader (net.Pipe has no buffering).
type fakeServer struct {
	t    *testing.T
	conn net.Conn
	out  chan frameOut

	mu         sync.Mutex
	handshakes []handshake
	commands   []command
	rawFrames  [][]byte
	pongs      [][]byte
	// reply decides the answer to SET_ACTIVITY; nil means success.
	reply func(cmd command) *errorData
}

type frameOut struct {
	op      Opcode
	payload []byte
}

func newFakeServer(t *testing.T, conn net.Conn) *fakeServer {
	s := &fakeServer{t: t, conn: conn, out: make(chan frameOut, 64)}
	go s.writeLoop()
	go s.readLoop()
	return s
}

func (s *fakeServer) writeLoop() {
	for f := range s.out {
		if err := writeFrame(s.conn, f.op, f.payload); err != nil {
			return
		}
	}
}

func (s *fakeServer) send(op Opcode, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.t.Errorf("fake server marshal: %v", err)
		return
	}
	s.out <- frameOut{op: op, payload: payload}
}

func (s *fakeServer) dispatch(evt string, data any) {
	s.send(OpFrame, map[string]any{"cmd": cmdDispatch, "evt": evt, "data": data})
}

func (s *fakeServer) readLoop() {
	defer close(s.out)
	for {
		op, payload, err := readFrame(s.conn)
		if err != nil {
			return
		}
		switch op {
		case OpHandshake:
			var hs handshake
			_ = json.Unmarshal(payload, &hs)
			s.mu.Lock()
			s.handshakes = append(s.handshakes, hs)
			s.mu.Unlock()
			s.dispatch(evtReady, map[string]any{"v": 1, "user": map[string]any{"id": "1", "username": "tester"}})
		case OpFrame:
			var cmd command
			_ = json.Unmarshal(payload, &cmd)
			s.mu.Lock()
			s.commands = append(s.commands, cmd)
			s.rawFrames = append(s.rawFrames, payload)
			reply := s.reply
			s.mu.Unlock()

			switch cmd.Cmd {
			case cmdSubscribe:
				s.send(OpFrame, map[string]any{"cmd": cmdSubscribe, "evt": cmd.Evt, "nonce": cmd.Nonce, "data": map[string]any{"evt": cmd.Evt}})
			case cmdSetActivity:
				if reply != nil {
					if ed := reply(cmd); ed != nil {
						s.send(OpFrame, map[string]any{"cmd": cmdSetActivity, "evt": evtError, "nonce": cmd.Nonce, "data": ed})
						continue
					}
				}
				s.send(OpFrame, map[string]any{"cmd": cmdSetActivity, "nonce": cmd.Nonce, "data": map[string]any{}})
			}
		case OpPong:
			s.mu.Lock()
			s.pongs = append(s.pongs, payload)
			s.mu.Unlock()
		case OpClose:
			return
		}
	}
}

func (s *fakeServer) commandsNamed(name string) []command {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []command
	for _, c := range s.commands {
		if c.Cmd == name {
			out = append(out, c)
		}
	}
	return out
}

func (s *fakeServer) lastRaw(name string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.commands) - 1; i >= 0; i-- {
		if s.commands[i].Cmd == name {
			return s.rawFrames[i]
		}
	}
	return nil
}

func (s *fakeServer) receivedPongs() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.pongs...)
}

// pipeDialer hands out the client end of a fresh pipe per dial and starts
// a fake server on the other end.
type pipeDialer struct {
	t       *testing.T
	mu      sync.Mutex
	servers []*fakeServer
	fail    int // dials to reject before succeeding
	dials   int
}

func (d *pipeDialer) Dial(ctx context.Context) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail > 0 {
		d.fail--
		return nil, &net.OpError{Op: "dial", Net: "unix", Err: errNoSocket}
	}
	client, server := net.Pipe()
	d.servers = append(d.servers, newFakeServer(d.t, server))
	return client, nil
}

func (d *pipeDialer) server(i int) *fakeServer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.servers) {
		return nil
	}
	return d.servers[i]
}

func (d *pipeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type dialError string

func (e dialError) Error() string { return string(e) }

const errNoSocket = dialError("no socket")
