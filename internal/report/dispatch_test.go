package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/floralink/internal/sensor"
)

// kitchenIdentity is the fixture identity used across dispatch tests.
var kitchenIdentity = sensor.Identity{
	Name:   "kitchen",
	Pretty: "Kitchen",
	MAC:    "4C:65:A8:11:22:33",
}

// kitchenReading builds a two-parameter Mijia reading.
func kitchenReading() *sensor.Reading {
	r := sensor.NewReading(sensor.ClassMitempbt)
	r.Set(sensor.ParamTemperature, 21.5)
	r.Set(sensor.ParamBattery, 80)
	return r
}

func TestDispatch_MQTTJSON(t *testing.T) {
	d := NewDispatcher(ModeMQTTJSON, "", "")

	actions, err := d.Dispatch(kitchenIdentity, "3.2.1", kitchenReading(), time.Now())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 1 {
		t.Fatalf("Dispatch() produced %d actions, want 1", len(actions))
	}

	action := actions[0]
	if action.Topic != "misensor/kitchen" {
		t.Errorf("topic = %q, want %q", action.Topic, "misensor/kitchen")
	}
	if action.Retained || action.QoS != 0 || action.Local || action.Username != "" {
		t.Errorf("unexpected action flags: %+v", action)
	}

	// Round trip: the payload decodes back to the reading's values.
	var decoded map[string]float64
	if err := json.Unmarshal(action.Payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded["temperature"] != 21.5 || decoded["battery"] != 80 {
		t.Errorf("payload round trip = %v, want temperature=21.5 battery=80", decoded)
	}
}

func TestDispatch_Homie(t *testing.T) {
	d := NewDispatcher(ModeHomie, "", "plant-daemon")

	actions, err := d.Dispatch(kitchenIdentity, "", kitchenReading(), time.Now())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 2 {
		t.Fatalf("Dispatch() produced %d actions, want 2", len(actions))
	}

	wantTopics := []string{
		"homie/plant-daemon/kitchen/temperature",
		"homie/plant-daemon/kitchen/battery",
	}
	wantPayloads := []string{"21.5", "80"}
	for i, action := range actions {
		if action.Topic != wantTopics[i] {
			t.Errorf("action[%d].Topic = %q, want %q", i, action.Topic, wantTopics[i])
		}
		if string(action.Payload) != wantPayloads[i] {
			t.Errorf("action[%d].Payload = %q, want %q", i, action.Payload, wantPayloads[i])
		}
		if action.QoS != 1 {
			t.Errorf("action[%d].QoS = %d, want 1", i, action.QoS)
		}
		if action.Retained {
			t.Errorf("action[%d] retained, want not retained", i)
		}
	}
}

func TestDispatch_HomeAssistant(t *testing.T) {
	d := NewDispatcher(ModeHomeAssistant, "", "")

	actions, err := d.Dispatch(sensor.Identity{Name: "Kitchen-Palm"}, "", kitchenReading(), time.Now())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 1 {
		t.Fatalf("Dispatch() produced %d actions, want 1", len(actions))
	}

	// State topics are lowercased even when the sensor name is not.
	if actions[0].Topic != "homeassistant/sensor/kitchen-palm/state" {
		t.Errorf("topic = %q, want %q", actions[0].Topic, "homeassistant/sensor/kitchen-palm/state")
	}
	if !actions[0].Retained {
		t.Error("state payload should be retained")
	}
}

func TestDispatch_Thingsboard(t *testing.T) {
	d := NewDispatcher(ModeThingsboard, "", "")

	actions, err := d.Dispatch(kitchenIdentity, "", kitchenReading(), time.Now())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 1 {
		t.Fatalf("Dispatch() produced %d actions, want 1", len(actions))
	}

	if actions[0].Topic != "v1/devices/me/telemetry" {
		t.Errorf("topic = %q, want the shared telemetry topic", actions[0].Topic)
	}
	if actions[0].Username != "kitchen" {
		t.Errorf("username = %q, want %q", actions[0].Username, "kitchen")
	}
}

func TestDispatch_Smarthome(t *testing.T) {
	d := NewDispatcher(ModeSmarthome, "", "")
	now := time.UnixMilli(1700000000123)

	actions, err := d.Dispatch(kitchenIdentity, "", kitchenReading(), now)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 2 {
		t.Fatalf("Dispatch() produced %d actions, want 2", len(actions))
	}

	if actions[0].Topic != "misensor/status/kitchen/temperature" {
		t.Errorf("topic = %q, want %q", actions[0].Topic, "misensor/status/kitchen/temperature")
	}
	want := fmt.Sprintf(`{"val":21.5,"ts":%d}`, now.UnixMilli())
	if string(actions[0].Payload) != want {
		t.Errorf("payload = %s, want %s", actions[0].Payload, want)
	}
	for i, action := range actions {
		if !action.Retained {
			t.Errorf("action[%d] should be retained", i)
		}
	}
}

func TestDispatch_Wirenboard(t *testing.T) {
	d := NewDispatcher(ModeWirenboard, "", "")
	now := time.Date(2026, 8, 31, 14, 30, 5, 0, time.Local)

	actions, err := d.Dispatch(kitchenIdentity, "", kitchenReading(), now)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// Two parameters plus the synthetic timestamp control.
	if len(actions) != 3 {
		t.Fatalf("Dispatch() produced %d actions, want 3", len(actions))
	}

	if actions[0].Topic != "/devices/kitchen/controls/temperature" {
		t.Errorf("topic = %q, want %q", actions[0].Topic, "/devices/kitchen/controls/temperature")
	}

	last := actions[len(actions)-1]
	if last.Topic != "/devices/kitchen/controls/timestamp" {
		t.Errorf("last topic = %q, want the timestamp control", last.Topic)
	}
	if string(last.Payload) != "2026-08-31 14:30:05" {
		t.Errorf("timestamp payload = %q, want %q", last.Payload, "2026-08-31 14:30:05")
	}
	for i, action := range actions {
		if !action.Retained {
			t.Errorf("action[%d] should be retained", i)
		}
	}
}

func TestDispatch_Local(t *testing.T) {
	d := NewDispatcher(ModeLocal, "", "")
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)

	actions, err := d.Dispatch(kitchenIdentity, "3.2.1", kitchenReading(), now)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(actions) != 1 {
		t.Fatalf("Dispatch() produced %d actions, want 1", len(actions))
	}
	if !actions[0].Local || actions[0].Topic != "" {
		t.Errorf("expected a local action, got %+v", actions[0])
	}

	var decoded map[string]any
	if err := json.Unmarshal(actions[0].Payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}

	wantFields := map[string]any{
		"temperature": 21.5,
		"battery":     float64(80),
		"timestamp":   "2026-08-31 09:00:00",
		"name":        "kitchen",
		"name_pretty": "Kitchen",
		"mac":         "4C:65:A8:11:22:33",
		"firmware":    "3.2.1",
	}
	for k, want := range wantFields {
		if decoded[k] != want {
			t.Errorf("payload[%q] = %v, want %v", k, decoded[k], want)
		}
	}
}

func TestDispatch_UnknownModeValue(t *testing.T) {
	d := Dispatcher{mode: Mode(42)}

	_, err := d.Dispatch(kitchenIdentity, "", kitchenReading(), time.Now())
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Dispatch() error = %v, want ErrUnknownMode", err)
	}
}
