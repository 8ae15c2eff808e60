package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// Broker is the publish capability the executor needs from the MQTT client.
type Broker interface {
	// Publish sends one message to the broker.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// ReconnectAs tears the connection down and reconnects with a different
	// username (thingsboard-json per-sensor credentials).
	ReconnectAs(username string) error
}

// Logger defines the logging interface used by the Publisher.
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

// Publisher executes dispatcher output against the broker or local sink.
//
// It owns no retry logic: a lost publish is the broker client's concern.
//
// Thread Safety:
//   - Safe for concurrent use by multiple polling workers. The broker
//     client is itself thread-safe; the only added serialisation is around
//     credential-switching publishes, where a concurrent reconnect from
//     another worker would race the in-flight publish.
type Publisher struct {
	dispatcher Dispatcher
	announcer  Announcer
	broker     Broker
	local      io.Writer
	logger     Logger

	// credMu serialises whole publish sequences in the credential-switching
	// mode, where reconnecting invalidates the shared connection.
	credMu sync.Mutex
}

// NewPublisher creates a Publisher for the given dispatcher.
//
// Parameters:
//   - d: The mode dispatcher
//   - broker: The broker capability; may be nil for the local-only mode
//   - local: Sink for local actions (typically os.Stdout)
func NewPublisher(d Dispatcher, broker Broker, local io.Writer) *Publisher {
	return &Publisher{
		dispatcher: d,
		announcer:  NewAnnouncer(d),
		broker:     broker,
		local:      local,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Report dispatches one reading and executes the resulting actions.
//
// Parameters:
//   - id: The sensor's identity
//   - firmware: The sensor's firmware revision
//   - reading: The current cycle's parameter snapshot
//
// Returns:
//   - error: The first publish failure, or a dispatch error
func (p *Publisher) Report(id sensor.Identity, firmware string, reading *sensor.Reading) error {
	actions, err := p.dispatcher.Dispatch(id, firmware, reading, time.Now())
	if err != nil {
		return err
	}
	return p.run(actions)
}

// Announce publishes the mode's discovery metadata. Safe to call on every
// restart; the retained payloads are deterministic and simply overwrite.
//
// Returns:
//   - error: The first publish failure, or a payload encoding error
func (p *Publisher) Announce(reg *sensor.Registry) error {
	actions, err := p.announcer.Actions(reg)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return nil
	}
	p.logger.Info("announcing devices for auto-discovery",
		"mode", p.dispatcher.mode.String(),
		"sensors", reg.Len(),
		"messages", len(actions),
	)
	return p.run(actions)
}

// run executes a sequence of actions in order.
func (p *Publisher) run(actions []Action) error {
	// The credential-switching mode reconnects the shared broker connection
	// per sensor. Another worker publishing mid-reconnect would either fail
	// or go out under the wrong credential, so those sequences run one at a
	// time.
	if p.dispatcher.mode == ModeThingsboard {
		p.credMu.Lock()
		defer p.credMu.Unlock()
	}

	for _, action := range actions {
		if action.Local {
			if _, err := fmt.Fprintf(p.local, "%s\n", action.Payload); err != nil {
				return fmt.Errorf("writing local output: %w", err)
			}
			continue
		}

		if p.broker == nil {
			return ErrNoBroker
		}

		if action.Username != "" {
			if err := p.broker.ReconnectAs(action.Username); err != nil {
				return fmt.Errorf("switching broker credential to %q: %w", action.Username, err)
			}
		}

		if err := p.broker.Publish(action.Topic, action.Payload, action.QoS, action.Retained); err != nil {
			return fmt.Errorf("publishing to %q: %w", action.Topic, err)
		}
	}

	return nil
}
