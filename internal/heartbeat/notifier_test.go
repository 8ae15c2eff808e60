package heartbeat

import (
	"net"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	if _, ok := New().(Noop); !ok {
		t.Error("New() without NOTIFY_SOCKET should return Noop")
	}
}

func TestNew_WithSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "/run/systemd/notify")

	if _, ok := New().(*Systemd); !ok {
		t.Error("New() with NOTIFY_SOCKET should return a Systemd notifier")
	}
}

func TestSystemd_DeliversStatus(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: socket, Net: "unixgram"})
	if err != nil {
		t.Fatalf("listening on %s: %v", socket, err)
	}
	defer conn.Close()

	t.Setenv("NOTIFY_SOCKET", socket)
	notifier := New()

	notifier.Ready()
	notifier.Notify("STATUS=Polling 3 miflora sensors")

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("setting deadline: %v", err)
	}

	buf := make([]byte, 256)
	for _, want := range []string{"READY=1", "STATUS=Polling 3 miflora sensors"} {
		n, _, err := conn.ReadFromUnix(buf)
		if err != nil {
			t.Fatalf("reading datagram: %v", err)
		}
		if got := string(buf[:n]); got != want {
			t.Errorf("datagram = %q, want %q", got, want)
		}
	}
}

func TestSystemd_SocketGone(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", filepath.Join(t.TempDir(), "missing.sock"))
	notifier := New()

	// Delivery is best effort; a missing socket must not panic or block.
	notifier.Ready()
	notifier.Notify("STOPPING=1")
}

func TestNoop(t *testing.T) {
	var n Notifier = Noop{}
	n.Ready()
	n.Notify("STATUS=anything")
}
