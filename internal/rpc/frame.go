package rpc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Opcode is the first word of every IPC frame.
type Opcode uint32

const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

const (
	headerSize = 8
	// maxFrameSize bounds a single payload so a corrupt header cannot make us
	// allocate arbitrarily large buffers.
	maxFrameSize = 1 << 20
)

func (op Opcode) String() string {
	switch op {
	case OpHandshake:
		return "handshake"
	case OpFrame:
		return "frame"
	case OpClose:
		return "close"
	case OpPing:
		return "ping"
	case OpPong:
		return "pong"
	default:
		return fmt.Sprintf("opcode(%d)", uint32(op))
	}
}

// writeFrame writes header and payload with a single Write call.
func writeFrame(w io.Writer, op Opcode, payload []byte) error {
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write %s frame: %w", op, err)
	}
	return nil
}

// readFrame reads one frame. Returns io.EOF untouched when the peer closed
// the connection between frames.
func readFrame(r io.Reader) (Opcode, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	op := Opcode(binary.LittleEndian.Uint32(header[0:4]))
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > maxFrameSize {
		return 0, nil, fmt.Errorf("read %s frame: payload of %d bytes exceeds limit", op, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read %s frame: %w", op, err)
	}
	return op, payload, nil
}

// handshake is the first payload sent on a new connection.
type handshake struct {
	V        int    `json:"v"`
	ClientID string `json:"client_id"`
}

// command is an outbound request frame.
type command struct {
	Cmd   string `json:"cmd"`
	Args  any    `json:"args,omitempty"`
	Evt   string `json:"evt,omitempty"`
	Nonce string `json:"nonce"`
}

type setActivityArgs struct {
	PID      int       `json:"pid"`
	Activity *Activity `json:"activity,omitempty"`
}

// message is an inbound frame: a command reply or a dispatched event.
type message struct {
	Cmd   string          `json:"cmd"`
	Evt   string          `json:"evt"`
	Nonce string          `json:"nonce"`
	Data  json.RawMessage `json:"data"`
}

// errorData is the body of ERROR replies and close frames.
type errorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	cmdDispatch    = "DISPATCH"
	cmdSetActivity = "SET_ACTIVITY"
	cmdSubscribe   = "SUBSCRIBE"

	evtReady = "READY"
	evtError = "ERROR"
)

// encodeSetActivity builds the SET_ACTIVITY payload. A nil activity clears
// the presence.
func encodeSetActivity(nonce string, pid int, a *Activity) ([]byte, error) {
	payload, err := json.Marshal(command{
		Cmd:   cmdSetActivity,
		Args:  setActivityArgs{PID: pid, Activity: a},
		Nonce: nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmdSetActivity, err)
	}
	return payload, nil
}

func encodeSubscribe(nonce, evt string) ([]byte, error) {
	payload, err := json.Marshal(command{
		Cmd:   cmdSubscribe,
		Evt:   evt,
		Nonce: nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", cmdSubscribe, evt, err)
	}
	return payload, nil
}
