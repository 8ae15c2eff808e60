package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// firmwareKey is the reserved key in helper output carrying the firmware
// revision rather than a parameter value.
const firmwareKey = "firmware"

// Exec reads one sensor through the configured helper command.
//
// FillCache runs the helper and caches the decoded values; the parameter
// accessors serve from that cache until ClearCache. One Exec exists per
// configured sensor, and the polling layer's bus lock already serialises
// acquisitions, but the cache is guarded anyway so a stale read from
// another goroutine can never corrupt it.
type Exec struct {
	command string
	args    []string
	class   sensor.Class
	mac     string
	timeout time.Duration

	mu       sync.Mutex
	values   map[sensor.Param]float64
	firmware string
}

// Factory returns a sensor.ReaderFactory producing helper-backed readers.
//
// Parameters:
//   - command: The helper executable path
//   - args: Fixed arguments placed before the class and MAC
//   - timeout: Per-invocation limit
func Factory(command string, args []string, timeout time.Duration) sensor.ReaderFactory {
	return func(class sensor.Class, mac string) (sensor.Reader, error) {
		if command == "" {
			return nil, fmt.Errorf("reader: helper command is empty")
		}
		return &Exec{
			command: command,
			args:    args,
			class:   class,
			mac:     mac,
			timeout: timeout,
		}, nil
	}
}

// FillCache runs the helper once and caches its output.
//
// Returns:
//   - error: If the helper fails, times out, or prints unusable output
func (e *Exec) FillCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	args := append(append([]string(nil), e.args...), e.class.String(), e.mac)
	cmd := exec.CommandContext(ctx, e.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("reader: helper timed out after %s for %s", e.timeout, e.mac)
		}
		return fmt.Errorf("reader: helper failed for %s: %w (stderr: %s)",
			e.mac, err, bytes.TrimSpace(stderr.Bytes()))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return fmt.Errorf("reader: decoding helper output for %s: %w", e.mac, err)
	}

	values := make(map[sensor.Param]float64, len(raw))
	firmware := ""
	for key, msg := range raw {
		if key == firmwareKey {
			if err := json.Unmarshal(msg, &firmware); err != nil {
				return fmt.Errorf("reader: decoding firmware for %s: %w", e.mac, err)
			}
			continue
		}
		if _, ok := e.class.ParamSpec(sensor.Param(key)); !ok {
			// Helpers may emit extra fields; only class parameters matter.
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("reader: decoding %s for %s: %w", key, e.mac, err)
		}
		values[sensor.Param(key)] = v
	}

	e.mu.Lock()
	e.values = values
	if firmware != "" {
		e.firmware = firmware
	}
	e.mu.Unlock()

	return nil
}

// ParameterValue returns a cached parameter value.
//
// Returns:
//   - float64: The value from the last successful FillCache
//   - error: If the parameter is absent from the cache
func (e *Exec) ParameterValue(p sensor.Param) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.values[p]
	if !ok {
		return 0, fmt.Errorf("reader: no cached value for %s on %s", p, e.mac)
	}
	return v, nil
}

// FirmwareVersion returns the firmware revision reported by the helper,
// or empty before the first successful acquisition.
func (e *Exec) FirmwareVersion() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firmware
}

// ClearCache drops cached values so the next acquisition starts fresh.
// The firmware revision survives; it does not change between polls.
func (e *Exec) ClearCache() {
	e.mu.Lock()
	e.values = nil
	e.mu.Unlock()
}
