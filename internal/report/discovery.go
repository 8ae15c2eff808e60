package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/floralink/internal/sensor"
)

// Announcer produces the one-shot discovery announcements for the modes
// that define an auto-configuration convention (mqtt-json, mqtt-homie,
// homeassistant-mqtt, wirenboard-mqtt). The other modes announce nothing.
//
// Output is deterministic for a given registry: running the announcement
// twice produces byte-identical retained payloads, so a restart simply
// overwrites what the broker already holds.
type Announcer struct {
	dispatcher Dispatcher
}

// NewAnnouncer creates an Announcer sharing the dispatcher's topic layout.
func NewAnnouncer(d Dispatcher) Announcer {
	return Announcer{dispatcher: d}
}

// announceInfo is one sensor's entry in the mqtt-json $announce digest.
type announceInfo struct {
	Pretty         string `json:"name_pretty"`
	MAC            string `json:"mac"`
	Refresh        int    `json:"refresh"`
	Location       string `json:"location_clean"`
	LocationPretty string `json:"location_pretty"`
	Firmware       string `json:"firmware"`
	Topic          string `json:"topic"`
}

// haConfig is one parameter's Home Assistant discovery config payload.
type haConfig struct {
	StateTopic  string    `json:"state_topic"`
	Unit        string    `json:"unit_of_measurement"`
	Template    string    `json:"value_template"`
	Name        string    `json:"name"`
	DeviceClass string    `json:"device_class,omitempty"`
	Device      *haDevice `json:"device,omitempty"`
}

// haDevice is the Home Assistant device descriptor grouping a sensor's
// parameters under one device entry.
type haDevice struct {
	Identifiers  []string   `json:"identifiers"`
	Connections  [][]string `json:"connections"`
	Manufacturer string     `json:"manufacturer"`
	Name         string     `json:"name"`
	Model        string     `json:"model"`
	SWVersion    string     `json:"sw_version"`
}

// Actions returns the discovery publish actions for the configured mode.
//
// Parameters:
//   - reg: The populated sensor registry
//
// Returns:
//   - []Action: Discovery actions in emission order; nil when the mode has
//     no discovery convention
//   - error: If a payload fails to serialise
func (a Announcer) Actions(reg *sensor.Registry) ([]Action, error) {
	base := a.dispatcher.baseTopic
	device := a.dispatcher.deviceID

	switch a.dispatcher.mode {
	case ModeMQTTJSON:
		digest := make(map[string]announceInfo, reg.Len())
		reg.All(func(inst *sensor.Instance) {
			digest[inst.Identity.Name] = announceInfo{
				Pretty:         inst.Identity.Pretty,
				MAC:            inst.Identity.MAC,
				Refresh:        int(inst.Period.Seconds()),
				Location:       inst.Identity.Location,
				LocationPretty: inst.Identity.LocationPretty,
				Firmware:       inst.Firmware,
				Topic:          fmt.Sprintf("%s/%s", base, inst.Identity.Name),
			}
		})
		payload, err := json.Marshal(digest)
		if err != nil {
			return nil, fmt.Errorf("encoding announce digest: %w", err)
		}
		return []Action{{
			Topic:    base + "/$announce",
			Payload:  payload,
			Retained: true,
		}}, nil

	case ModeHomie:
		return a.homieActions(reg, base, device), nil

	case ModeHomeAssistant:
		return a.homeAssistantActions(reg, base)

	case ModeWirenboard:
		return a.wirenboardActions(reg), nil

	default:
		return nil, nil
	}
}

// homieActions builds the homie 2.1 device/node/property tree.
func (a Announcer) homieActions(reg *sensor.Registry, base, device string) []Action {
	root := fmt.Sprintf("%s/%s", base, device)
	retained := func(topic, payload string) Action {
		return Action{Topic: topic, Payload: []byte(payload), QoS: 1, Retained: true}
	}

	var names []string
	reg.All(func(inst *sensor.Instance) {
		names = append(names, inst.Identity.Name)
	})

	actions := []Action{
		retained(root+"/$homie", "2.1.0-alpha"),
		retained(root+"/$online", "true"),
		retained(root+"/$name", device),
		retained(root+"/$nodes", strings.Join(names, ",")),
	}

	reg.All(func(inst *sensor.Instance) {
		node := fmt.Sprintf("%s/%s", root, inst.Identity.Name)
		specs := sortedParams(inst.Class)

		props := make([]string, len(specs))
		for i, spec := range specs {
			props[i] = string(spec.Param)
		}

		actions = append(actions,
			retained(node+"/$name", inst.Identity.Pretty),
			retained(node+"/$type", inst.Class.String()),
			retained(node+"/$properties", strings.Join(props, ",")),
		)
		for _, spec := range specs {
			prop := fmt.Sprintf("%s/%s", node, spec.Param)
			actions = append(actions,
				retained(prop+"/$settable", "false"),
				retained(prop+"/$unit", spec.HomieUnit),
				retained(prop+"/$datatype", spec.Datatype),
				retained(prop+"/$range", spec.Range),
			)
		}
	})

	return actions
}

// homeAssistantActions builds the per-parameter discovery config payloads.
func (a Announcer) homeAssistantActions(reg *sensor.Registry, base string) ([]Action, error) {
	var actions []Action
	var encodeErr error

	reg.All(func(inst *sensor.Instance) {
		if encodeErr != nil {
			return
		}
		name := inst.Identity.Name
		stateTopic := strings.ToLower(fmt.Sprintf("%s/sensor/%s/state", base, name))
		device := &haDevice{
			Identifiers: []string{
				deviceTag(inst.Class) + strings.ReplaceAll(strings.ToLower(inst.Identity.MAC), ":", ""),
			},
			Connections:  [][]string{{"mac", strings.ToLower(inst.Identity.MAC)}},
			Manufacturer: "Xiaomi",
			Name:         name,
			Model:        inst.Class.Model(),
			SWVersion:    inst.Firmware,
		}

		for _, spec := range inst.Class.Params() {
			cfg := haConfig{
				StateTopic:  stateTopic,
				Unit:        spec.Unit,
				Template:    fmt.Sprintf("{{ value_json.%s }}", spec.Param),
				Name:        fmt.Sprintf("%s %s", name, titleCase(string(spec.Param))),
				DeviceClass: spec.DeviceClass,
				Device:      device,
			}
			payload, err := json.Marshal(cfg)
			if err != nil {
				encodeErr = fmt.Errorf("encoding discovery config: %w", err)
				return
			}
			actions = append(actions, Action{
				Topic:    strings.ToLower(fmt.Sprintf("%s/sensor/%s/%s_%s/config", base, name, name, spec.Param)),
				Payload:  payload,
				QoS:      1,
				Retained: true,
			})
		}
	})

	if encodeErr != nil {
		return nil, encodeErr
	}
	return actions, nil
}

// wirenboardActions builds the per-control meta topics.
func (a Announcer) wirenboardActions(reg *sensor.Registry) []Action {
	var actions []Action
	retained := func(topic, payload string) Action {
		return Action{Topic: topic, Payload: []byte(payload), QoS: 1, Retained: true}
	}

	reg.All(func(inst *sensor.Instance) {
		name := inst.Identity.Name
		actions = append(actions, retained(fmt.Sprintf("/devices/%s/meta/name", name), name))

		controls := fmt.Sprintf("/devices/%s/controls", name)
		for _, spec := range sortedParams(inst.Class) {
			actions = append(actions, retained(
				fmt.Sprintf("%s/%s/meta/type", controls, spec.Param), spec.WirenType))
			if spec.WirenUnits != "" {
				actions = append(actions, retained(
					fmt.Sprintf("%s/%s/meta/units", controls, spec.Param), spec.WirenUnits))
			}
		}
		actions = append(actions, retained(controls+"/timestamp/meta/type", "text"))
	})

	return actions
}

// sortedParams returns the family's parameters sorted by wire name, the
// order the discovery conventions list properties in.
func sortedParams(class sensor.Class) []sensor.ParamSpec {
	specs := append([]sensor.ParamSpec(nil), class.Params()...)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Param < specs[j].Param })
	return specs
}

// deviceTag returns the CamelCase family tag used in device identifiers.
func deviceTag(class sensor.Class) string {
	if class == sensor.ClassMitempbt {
		return "MiTempBt"
	}
	return "MiFlora"
}

// titleCase uppercases the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
