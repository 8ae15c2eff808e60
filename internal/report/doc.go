// Package report maps sensor readings onto the configured publish encoding.
//
// This package manages:
//   - The closed set of reporting modes and their topic conventions
//   - Dispatching one reading into a sequence of publish actions
//   - One-shot discovery announcements for the auto-configuring modes
//   - Executing publish actions against the broker (or a local sink)
//
// # Reporting modes
//
// Seven modes are supported, each with a fixed topic/payload convention:
//
//	mqtt-json           one JSON object per sensor under {base}/{sensor}
//	mqtt-homie          one raw scalar per parameter, homie convention
//	homeassistant-mqtt  retained JSON state plus discovery config payloads
//	thingsboard-json    shared telemetry topic, per-sensor broker credential
//	mqtt-smarthome      {"val":…,"ts":…} envelopes per parameter, retained
//	wirenboard-mqtt     one retained scalar per control under /devices/…
//	json                local stdout, annotated JSON, no broker at all
//
// Dispatch is a pure function of its inputs (the caller supplies the
// timestamp), which keeps every mode unit-testable without a broker.
//
// # Discovery
//
// The announcing modes publish retained metadata once at startup, before any
// polling worker runs. Announcements are deterministic: re-running them
// overwrites the broker-retained payloads with identical bytes.
package report
