package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// timestampLayout is the human-readable timestamp format used by the local
// and Wiren Board modes.
const timestampLayout = "2006-01-02 15:04:05"

// Dispatcher maps one sensor reading onto the publish actions of the
// configured reporting mode.
//
// Dispatch is pure: the caller supplies the timestamp, and the dispatcher
// holds no connection or other hidden state.
type Dispatcher struct {
	mode      Mode
	baseTopic string
	deviceID  string
}

// NewDispatcher creates a Dispatcher for one reporting mode.
//
// Parameters:
//   - mode: The reporting mode (from ParseMode)
//   - baseTopicOverride: Optional base topic override, "" for the mode default
//   - deviceID: The homie device identifier (ModeHomie only)
func NewDispatcher(mode Mode, baseTopicOverride, deviceID string) Dispatcher {
	return Dispatcher{
		mode:      mode,
		baseTopic: mode.ResolveBaseTopic(baseTopicOverride),
		deviceID:  strings.ToLower(deviceID),
	}
}

// Mode returns the dispatcher's reporting mode.
func (d Dispatcher) Mode() Mode {
	return d.mode
}

// BaseTopic returns the resolved base topic.
func (d Dispatcher) BaseTopic() string {
	return d.baseTopic
}

// Dispatch maps one reading onto the mode's publish actions.
//
// The reading must belong to the identity's device family; the dispatcher
// does not re-validate that caller invariant.
//
// Parameters:
//   - id: The sensor's identity
//   - firmware: The sensor's firmware revision ("" if never contacted)
//   - reading: The parameter snapshot from the current cycle
//   - now: The dispatch timestamp (used by the envelope/local modes)
//
// Returns:
//   - []Action: Publish actions in emission order
//   - error: ErrUnknownMode for an out-of-range mode value
func (d Dispatcher) Dispatch(id sensor.Identity, firmware string, reading *sensor.Reading, now time.Time) ([]Action, error) {
	switch d.mode {
	case ModeMQTTJSON:
		payload, err := json.Marshal(reading)
		if err != nil {
			return nil, fmt.Errorf("encoding reading: %w", err)
		}
		return []Action{{
			Topic:   fmt.Sprintf("%s/%s", d.baseTopic, id.Name),
			Payload: payload,
		}}, nil

	case ModeThingsboard:
		payload, err := json.Marshal(reading)
		if err != nil {
			return nil, fmt.Errorf("encoding reading: %w", err)
		}
		return []Action{{
			Topic:    d.baseTopic,
			Payload:  payload,
			Username: id.Name,
		}}, nil

	case ModeHomeAssistant:
		payload, err := json.Marshal(reading)
		if err != nil {
			return nil, fmt.Errorf("encoding reading: %w", err)
		}
		return []Action{{
			Topic:    strings.ToLower(fmt.Sprintf("%s/sensor/%s/state", d.baseTopic, id.Name)),
			Payload:  payload,
			Retained: true,
		}}, nil

	case ModeHomie:
		var actions []Action
		reading.Each(func(spec sensor.ParamSpec, v float64) {
			actions = append(actions, Action{
				Topic:   fmt.Sprintf("%s/%s/%s/%s", d.baseTopic, d.deviceID, id.Name, spec.Param),
				Payload: []byte(spec.FormatValue(v)),
				QoS:     1,
			})
		})
		return actions, nil

	case ModeSmarthome:
		ts := now.UnixMilli()
		var actions []Action
		reading.Each(func(spec sensor.ParamSpec, v float64) {
			payload := fmt.Sprintf(`{"val":%s,"ts":%d}`, spec.FormatValue(v), ts)
			actions = append(actions, Action{
				Topic:    fmt.Sprintf("%s/status/%s/%s", d.baseTopic, id.Name, spec.Param),
				Payload:  []byte(payload),
				Retained: true,
			})
		})
		return actions, nil

	case ModeWirenboard:
		var actions []Action
		reading.Each(func(spec sensor.ParamSpec, v float64) {
			actions = append(actions, Action{
				Topic:    fmt.Sprintf("/devices/%s/controls/%s", id.Name, spec.Param),
				Payload:  []byte(spec.FormatValue(v)),
				Retained: true,
			})
		})
		actions = append(actions, Action{
			Topic:    fmt.Sprintf("/devices/%s/controls/timestamp", id.Name),
			Payload:  []byte(now.Format(timestampLayout)),
			Retained: true,
		})
		return actions, nil

	case ModeLocal:
		payload, err := localPayload(id, firmware, reading, now)
		if err != nil {
			return nil, err
		}
		return []Action{{Payload: payload, Local: true}}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(d.mode))
	}
}

// localPayload builds the annotated JSON object for the local-only mode:
// the reading's parameters followed by timestamp, naming, address and
// firmware metadata.
func localPayload(id sensor.Identity, firmware string, reading *sensor.Reading, now time.Time) ([]byte, error) {
	body, err := json.Marshal(reading)
	if err != nil {
		return nil, fmt.Errorf("encoding reading: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(body[:len(body)-1]) // reuse the object up to its closing brace
	if reading.Len() > 0 {
		buf.WriteByte(',')
	}
	buf.WriteString(`"timestamp":` + jsonString(now.Format(timestampLayout)))
	buf.WriteString(`,"name":` + jsonString(id.Name))
	buf.WriteString(`,"name_pretty":` + jsonString(id.Pretty))
	buf.WriteString(`,"mac":` + jsonString(id.MAC))
	buf.WriteString(`,"firmware":` + jsonString(firmware))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonString encodes s as a JSON string literal.
func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Strings never fail to marshal; keep the compiler honest.
		return strconv.Quote(s)
	}
	return string(b)
}
