package sensor

import (
	"fmt"
	"sort"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry holds the configured sensors grouped by device family.
//
// It is populated once at startup and read-only afterwards. Within a family
// the instances keep a fixed order (sorted by display name), so every
// polling cycle visits sensors in the same sequence.
type Registry struct {
	instances map[Class][]*Instance
	logger    Logger
}

// NewRegistry creates an empty sensor registry.
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[Class][]*Instance),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AddFamily builds the instances for one device family from configuration
// entries (display name, optionally with "@location", mapped to a MAC
// address) and adds them to the registry.
//
// Entries are sorted by configured name so the polling order is stable
// across restarts. Invalid addresses and internal-name collisions are
// configuration errors and abort startup.
//
// Parameters:
//   - class: The device family
//   - entries: Configured name → MAC pairs
//   - period: The family's poll period
//   - factory: Creates the reader for each validated address
//
// Returns:
//   - error: ErrInvalidAddress, ErrDuplicateName, or a factory error
func (r *Registry) AddFamily(class Class, entries map[string]string, period time.Duration, factory ReaderFactory) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	for _, name := range names {
		identity, err := ParseIdentity(class, name, entries[name])
		if err != nil {
			return fmt.Errorf("sensor %q: %w", name, err)
		}

		if prev, ok := seen[identity.Name]; ok {
			return fmt.Errorf("%w: %q and %q both resolve to %q",
				ErrDuplicateName, prev, name, identity.Name)
		}
		seen[identity.Name] = name

		reader, err := factory(class, identity.MAC)
		if err != nil {
			return fmt.Errorf("creating reader for %q (%s): %w", name, identity.MAC, err)
		}

		r.instances[class] = append(r.instances[class], &Instance{
			Class:    class,
			Identity: identity,
			Reader:   reader,
			Period:   period,
		})
	}

	return nil
}

// Instances returns the family's sensors in their fixed polling order.
// The returned slice must not be modified.
func (r *Registry) Instances(class Class) []*Instance {
	return r.instances[class]
}

// Classes returns the families that have at least one configured sensor,
// in fixed order.
func (r *Registry) Classes() []Class {
	var classes []Class
	for _, class := range []Class{ClassMiflora, ClassMitempbt} {
		if len(r.instances[class]) > 0 {
			classes = append(classes, class)
		}
	}
	return classes
}

// Len returns the total number of configured sensors.
func (r *Registry) Len() int {
	n := 0
	for _, list := range r.instances {
		n += len(list)
	}
	return n
}

// All calls fn for every instance, families in fixed order.
func (r *Registry) All(fn func(*Instance)) {
	for _, class := range r.Classes() {
		for _, inst := range r.instances[class] {
			fn(inst)
		}
	}
}

// InitialContact attempts a first connection to every configured sensor,
// capturing the firmware revision on success. Failures are logged and
// non-fatal; an unreachable sensor stays in the registry and is retried
// every polling cycle.
func (r *Registry) InitialContact() {
	r.All(func(inst *Instance) {
		inst.Reader.ClearCache()
		if err := inst.Reader.FillCache(); err != nil {
			r.logger.Error("initial connection failed",
				"family", inst.Class.String(),
				"sensor", inst.Identity.Pretty,
				"mac", inst.Identity.MAC,
				"error", err,
			)
			return
		}
		if _, err := inst.Reader.ParameterValue(ParamBattery); err != nil {
			r.logger.Error("initial connection failed",
				"family", inst.Class.String(),
				"sensor", inst.Identity.Pretty,
				"mac", inst.Identity.MAC,
				"error", err,
			)
			return
		}
		inst.Firmware = inst.Reader.FirmwareVersion()
		r.logger.Info("initial connection successful",
			"family", inst.Class.String(),
			"sensor", inst.Identity.Pretty,
			"internal_name", inst.Identity.Name,
			"mac", inst.Identity.MAC,
			"firmware", inst.Firmware,
		)
	})
}
