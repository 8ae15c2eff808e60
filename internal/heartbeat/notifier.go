package heartbeat

import (
	"net"
	"os"
	"strings"
)

// Notifier reports process state to the service manager.
type Notifier interface {
	// Ready signals that startup has completed.
	Ready()

	// Notify sends a raw state line ("STATUS=...", "STOPPING=1").
	Notify(status string)
}

// Noop is a Notifier that discards everything. Used when the process is
// not supervised.
type Noop struct{}

// Ready does nothing.
func (Noop) Ready() {}

// Notify does nothing.
func (Noop) Notify(string) {}

// Systemd sends state over the NOTIFY_SOCKET datagram socket.
//
// Delivery is best effort: the protocol carries no acknowledgements and a
// failed write only means the manager misses one status line, so errors
// are swallowed.
type Systemd struct {
	addr *net.UnixAddr
}

// New returns a Notifier for the current environment: a Systemd notifier
// when NOTIFY_SOCKET is set, otherwise Noop.
func New() Notifier {
	socket := os.Getenv("NOTIFY_SOCKET")
	if socket == "" {
		return Noop{}
	}
	// An abstract-namespace address is announced with a leading "@".
	if strings.HasPrefix(socket, "@") {
		socket = "\x00" + socket[1:]
	}
	return &Systemd{addr: &net.UnixAddr{Name: socket, Net: "unixgram"}}
}

// Ready signals that startup has completed.
func (s *Systemd) Ready() {
	s.Notify("READY=1")
}

// Notify sends one state line to the manager.
func (s *Systemd) Notify(status string) {
	conn, err := net.DialUnix("unixgram", nil, s.addr)
	if err != nil {
		return
	}
	defer conn.Close()
	_, _ = conn.Write([]byte(status))
}
