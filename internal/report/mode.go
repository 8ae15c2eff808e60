package report

import (
	"fmt"
	"strings"
)

// Mode is the configured publish encoding. Fixed for the process lifetime.
type Mode int

// The supported reporting modes.
const (
	// ModeMQTTJSON publishes one JSON object per sensor to {base}/{sensor}.
	ModeMQTTJSON Mode = iota

	// ModeHomie publishes raw scalars per parameter following the homie
	// convention under {base}/{device}/{sensor}/{parameter}.
	ModeHomie

	// ModeHomeAssistant publishes retained JSON state to
	// {base}/sensor/{sensor}/state plus discovery config payloads.
	ModeHomeAssistant

	// ModeThingsboard publishes every sensor's JSON object to one shared
	// telemetry topic, switching the broker credential per sensor.
	ModeThingsboard

	// ModeSmarthome publishes {"val":…,"ts":…} envelopes per parameter to
	// {base}/status/{sensor}/{parameter}, retained (mqtt-smarthome).
	ModeSmarthome

	// ModeWirenboard publishes retained scalars per control under
	// /devices/{sensor}/controls/{parameter} (Wiren Board convention).
	ModeWirenboard

	// ModeLocal skips the broker entirely and prints annotated JSON to a
	// local sink.
	ModeLocal
)

// modeNames maps each mode to its configuration string.
var modeNames = map[Mode]string{
	ModeMQTTJSON:      "mqtt-json",
	ModeHomie:         "mqtt-homie",
	ModeHomeAssistant: "homeassistant-mqtt",
	ModeThingsboard:   "thingsboard-json",
	ModeSmarthome:     "mqtt-smarthome",
	ModeWirenboard:    "wirenboard-mqtt",
	ModeLocal:         "json",
}

// ParseMode resolves a configuration string to a Mode.
//
// An unrecognised string is a configuration error; callers must treat it as
// fatal rather than fall back to a default.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// String returns the configuration string for the mode.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// UsesBroker reports whether the mode publishes to an MQTT broker at all.
func (m Mode) UsesBroker() bool {
	return m != ModeLocal
}

// defaultBaseTopic returns the mode's conventional topic root.
func (m Mode) defaultBaseTopic() string {
	switch m {
	case ModeHomie:
		return "homie"
	case ModeHomeAssistant:
		return "homeassistant"
	case ModeThingsboard:
		return "v1/devices/me/telemetry"
	case ModeWirenboard:
		// Wiren Board topics are rooted at /devices, not under a base topic.
		return ""
	default:
		return "misensor"
	}
}

// ResolveBaseTopic applies an optional configured override to the mode's
// default base topic. Topics are lowercased so subscribers see a stable
// hierarchy regardless of how the configuration was typed.
func (m Mode) ResolveBaseTopic(override string) string {
	topic := m.defaultBaseTopic()
	if override != "" {
		topic = override
	}
	return strings.ToLower(topic)
}

// Will returns the mode's Last Will and Testament message, if the mode
// defines an offline convention. The broker publishes it when the daemon
// disappears without a graceful disconnect.
//
// The device id is lowercased, matching the dispatcher, so the will fires
// on the same topic the online marker was announced on.
func (m Mode) Will(baseTopic, deviceID string) (Action, bool) {
	deviceID = strings.ToLower(deviceID)
	switch m {
	case ModeMQTTJSON:
		return Action{
			Topic:    baseTopic + "/$announce",
			Payload:  []byte("{}"),
			Retained: true,
		}, true
	case ModeHomie:
		return Action{
			Topic:    fmt.Sprintf("%s/%s/$online", baseTopic, deviceID),
			Payload:  []byte("false"),
			Retained: true,
		}, true
	case ModeSmarthome:
		return Action{
			Topic:    baseTopic + "/connected",
			Payload:  []byte("0"),
			Retained: true,
		}, true
	default:
		return Action{}, false
	}
}

// Connected returns the mode's post-connect liveness message, if any.
// Published right after the broker connection is established.
func (m Mode) Connected(baseTopic string) (Action, bool) {
	if m == ModeSmarthome {
		return Action{
			Topic:    baseTopic + "/connected",
			Payload:  []byte("1"),
			Retained: true,
		}, true
	}
	return Action{}, false
}
