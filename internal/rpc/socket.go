package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// socketSlots is how many discord-ipc-N sockets a client may expose.
const socketSlots = 10

// sandboxSubdirs are where packaged clients (flatpak, snap) put their socket,
// relative to the runtime directory.
var sandboxSubdirs = []string{
	"",
	filepath.Join("app", "com.discordapp.Discord"),
	"snap.discord",
}

// socketDirs returns the runtime directories searched for IPC sockets,
// in priority order.
func socketDirs() []string {
	var dirs []string
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(key); v != "" {
			dirs = append(dirs, v)
		}
	}
	return append(dirs, "/tmp")
}

// SocketCandidates lists every socket path that may host the external
// process, in the order they are tried.
func SocketCandidates() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for _, sub := range sandboxSubdirs {
			for i := 0; i < socketSlots; i++ {
				paths = append(paths, filepath.Join(dir, sub, fmt.Sprintf("discord-ipc-%d", i)))
			}
		}
	}
	return paths
}

// FindSocket returns the first candidate path that exists and is a socket.
func FindSocket() (string, bool) {
	for _, path := range SocketCandidates() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSocket != 0 {
			return path, true
		}
	}
	return "", false
}

// DialSocket connects to the first candidate socket that accepts.
func DialSocket(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	var errs []error
	for _, path := range SocketCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, errors.New("no IPC socket found")
	}
	return nil, fmt.Errorf("dial IPC socket: %w", errors.Join(errs...))
}
