// Package heartbeat reports daemon liveness to the service manager.
//
// When the process runs under systemd with Type=notify, the manager passes
// a datagram socket path in NOTIFY_SOCKET; readiness and status lines are
// written there. Outside systemd the package degrades to a no-op, so
// callers notify unconditionally.
package heartbeat
