package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// Reporter receives each successful acquisition as it happens.
type Reporter interface {
	Report(id sensor.Identity, firmware string, reading *sensor.Reading) error
}

// Result is the outcome of one sensor's acquisition within a pass.
type Result struct {
	// Class names the device family.
	Class string

	// Name is the sensor's cleaned identifier.
	Name string

	// MAC is the sensor's hardware address.
	MAC string

	// Success reports whether the acquisition produced a reading.
	Success bool

	// Reading holds the parameter snapshot; nil when Success is false.
	Reading *sensor.Reading

	// Timestamp is when the acquisition completed.
	Timestamp time.Time
}

// Sink receives the results of a completed pass, after the bus lock has
// been released. Sinks are for bookkeeping (journal, metrics mirror) and
// must not block for long; a slow sink delays the worker's next interval.
type Sink interface {
	RecordResults(ctx context.Context, results []Result) error
}

// Notifier receives liveness status lines (systemd sd_notify shape).
type Notifier interface {
	Notify(status string)
}

// Logger defines the logging interface used by the Worker.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// noopNotifier discards status lines.
type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// Config holds the dependencies and settings for one polling worker.
type Config struct {
	// Class selects the device family this worker polls.
	Class sensor.Class

	// Registry holds the family's sensor instances.
	Registry *sensor.Registry

	// Reporter receives successful readings.
	Reporter Reporter

	// Bus serialises radio access across all workers. Required.
	Bus *sync.Mutex

	// Period is the sleep between passes in daemon mode.
	Period time.Duration

	// Daemon selects continuous operation. When false the worker performs
	// one pass and returns.
	Daemon bool

	// Sinks receive pass results after the bus lock is released. Optional.
	Sinks []Sink

	// Notifier receives per-pass status lines. Optional.
	Notifier Notifier
}

// Worker polls one device family on its interval.
type Worker struct {
	cfg    Config
	logger Logger
}

// NewWorker creates a worker from the given configuration.
//
// Parameters:
//   - cfg: Worker dependencies; Registry, Reporter and Bus are required
//
// Returns:
//   - *Worker: The configured worker
//   - error: If a required dependency is missing
func NewWorker(cfg Config) (*Worker, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("poller: registry is required")
	}
	if cfg.Reporter == nil {
		return nil, fmt.Errorf("poller: reporter is required")
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("poller: bus mutex is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = noopNotifier{}
	}
	return &Worker{cfg: cfg, logger: noopLogger{}}, nil
}

// SetLogger sets the logger for the worker.
func (w *Worker) SetLogger(logger Logger) {
	w.logger = logger
}

// Run executes the polling loop until ctx is cancelled. In one-shot mode
// it returns after a single pass.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("polling worker started",
		"class", w.cfg.Class.String(),
		"sensors", len(w.cfg.Registry.Instances(w.cfg.Class)),
		"period", w.cfg.Period,
		"daemon", w.cfg.Daemon,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("polling worker stopping", "class", w.cfg.Class.String())
			return
		case <-timer.C:
		}

		w.pass(ctx)

		if !w.cfg.Daemon {
			w.logger.Info("single pass complete", "class", w.cfg.Class.String())
			return
		}
		timer.Reset(w.cfg.Period)
	}
}

// pass polls every sensor in the family once, holding the bus lock for the
// whole sweep, then hands the results to the sinks.
func (w *Worker) pass(ctx context.Context) {
	instances := w.cfg.Registry.Instances(w.cfg.Class)
	if len(instances) == 0 {
		return
	}

	w.cfg.Notifier.Notify(fmt.Sprintf("STATUS=Polling %d %s sensors",
		len(instances), w.cfg.Class.String()))

	results := make([]Result, 0, len(instances))

	w.cfg.Bus.Lock()
	for _, inst := range instances {
		reading, err := inst.Acquire()
		now := time.Now()

		result := Result{
			Class:     inst.Class.String(),
			Name:      inst.Identity.Name,
			MAC:       inst.Identity.MAC,
			Success:   err == nil,
			Reading:   reading,
			Timestamp: now,
		}
		results = append(results, result)

		if err != nil {
			w.logger.Warn("acquisition failed",
				"class", inst.Class.String(),
				"name", inst.Identity.Name,
				"mac", inst.Identity.MAC,
				"success_rate", fmt.Sprintf("%.1f%%", inst.Health.SuccessRate()*100),
				"error", err,
			)
			continue
		}

		w.logger.Debug("acquisition succeeded",
			"class", inst.Class.String(),
			"name", inst.Identity.Name,
			"values", reading.Len(),
		)

		if err := w.cfg.Reporter.Report(inst.Identity, inst.Firmware, reading); err != nil {
			w.logger.Error("reporting failed",
				"class", inst.Class.String(),
				"name", inst.Identity.Name,
				"error", err,
			)
		}
	}
	w.cfg.Bus.Unlock()

	for _, sink := range w.cfg.Sinks {
		if err := sink.RecordResults(ctx, results); err != nil {
			w.logger.Warn("result sink failed", "class", w.cfg.Class.String(), "error", err)
		}
	}

	w.cfg.Notifier.Notify(fmt.Sprintf("STATUS=Idle, next %s pass in %s",
		w.cfg.Class.String(), w.cfg.Period))
}
