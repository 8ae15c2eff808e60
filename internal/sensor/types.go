package sensor

import (
	"regexp"
	"time"
)

// Class identifies a supported device family.
type Class int

// Supported device families.
const (
	ClassMiflora Class = iota
	ClassMitempbt
)

// Address patterns per family. Xiaomi assigns fixed OUI prefixes, so a MAC
// outside these ranges is a configuration mistake.
var (
	mifloraAddressPattern  = regexp.MustCompile(`^C4:7C:8D:[0-9A-F]{2}:[0-9A-F]{2}:[0-9A-F]{2}$`)
	mitempbtAddressPattern = regexp.MustCompile(`^(4C:65:A8|58:2D:34):[0-9A-F]{2}:[0-9A-F]{2}:[0-9A-F]{2}$`)
)

// String returns the short family identifier used in topics and logs.
func (c Class) String() string {
	if c == ClassMitempbt {
		return "mitempbt"
	}
	return "miflora"
}

// TypeName returns the compact family name used in generated group
// identifiers (e.g. "gMiFlora").
func (c Class) TypeName() string {
	if c == ClassMitempbt {
		return "MiTempBt"
	}
	return "MiFlora"
}

// DisplayName returns the human-readable family name.
func (c Class) DisplayName() string {
	if c == ClassMitempbt {
		return "Mijia Bluetooth Temperature Smart Humidity"
	}
	return "Mi Flora"
}

// Model returns the hardware model description used in discovery payloads.
func (c Class) Model() string {
	if c == ClassMitempbt {
		return "Mijia Temperature and Humidity Sensor (LYWSDCGQ/01ZM)"
	}
	return "Mi Flora Plant Sensor (HHCCJCY01)"
}

// Params returns the family's parameter set in publish order.
func (c Class) Params() []ParamSpec {
	if c == ClassMitempbt {
		return mitempbtParams
	}
	return mifloraParams
}

// ParamSpec looks up the metadata for one parameter of this family.
// The second return value is false if the family does not report it.
func (c Class) ParamSpec(p Param) (ParamSpec, bool) {
	for _, spec := range c.Params() {
		if spec.Param == p {
			return spec, true
		}
	}
	return ParamSpec{}, false
}

// addressPattern returns the family's MAC validation pattern.
func (c Class) addressPattern() *regexp.Regexp {
	if c == ClassMitempbt {
		return mitempbtAddressPattern
	}
	return mifloraAddressPattern
}

// Identity carries a configured sensor's naming and addressing metadata.
type Identity struct {
	// Name is the unique internal identifier: the configured display name,
	// transliterated to ASCII with whitespace collapsed to hyphens.
	Name string

	// Pretty is the display name exactly as configured.
	Pretty string

	// Location is the transliterated location, empty if none was configured.
	Location string

	// LocationPretty is the location exactly as configured.
	LocationPretty string

	// MAC is the validated hardware address.
	MAC string
}

// Reader is the capability interface to one physical sensor. The BLE
// transport implementing it lives outside this package.
//
// A reader caches the last parameter fill. ClearCache must discard that
// state; FillCache performs one full refresh over the air and may fail
// transiently.
type Reader interface {
	// FillCache reads a complete parameter set from the device.
	FillCache() error

	// ParameterValue returns one cached parameter value. It fails when the
	// cache is empty or the device does not report the parameter.
	ParameterValue(p Param) (float64, error)

	// FirmwareVersion returns the device firmware revision, if known.
	FirmwareVersion() string

	// ClearCache discards any cached reading.
	ClearCache()
}

// ReaderFactory creates a Reader for a validated hardware address.
// Supplied by the caller wiring in the BLE transport.
type ReaderFactory func(class Class, mac string) (Reader, error)

// Health tracks a sensor's cumulative polling outcomes. Counters are
// monotonically non-decreasing and mutated only by the owning worker.
type Health struct {
	Attempted uint64
	Succeeded uint64
	Failed    uint64
}

// SuccessRate returns succeeded/attempted, or 0 before the first attempt.
func (h Health) SuccessRate() float64 {
	if h.Attempted == 0 {
		return 0
	}
	return float64(h.Succeeded) / float64(h.Attempted)
}

// Instance is one configured sensor: identity, reader handle, poll period,
// firmware revision and health counters.
type Instance struct {
	Class    Class
	Identity Identity
	Reader   Reader

	// Period is the poll interval for this sensor's family.
	Period time.Duration

	// Firmware is captured at the first successful contact.
	Firmware string

	Health Health
}
