package sensor

import (
	"math"
	"strconv"
)

// Param identifies one measured parameter. The string value is the wire name
// used in topics and JSON payloads.
type Param string

// Parameters across both device families.
const (
	ParamLight        Param = "light"
	ParamTemperature  Param = "temperature"
	ParamMoisture     Param = "moisture"
	ParamConductivity Param = "conductivity"
	ParamBattery      Param = "battery"
	ParamHumidity     Param = "humidity"
)

// String returns the wire name.
func (p Param) String() string {
	return string(p)
}

// ParamSpec describes one parameter's static metadata, used for value
// formatting and for the discovery payloads of the auto-configuring
// reporting modes.
type ParamSpec struct {
	// Param is the wire identifier.
	Param Param

	// Name is the compact display name (e.g. "SoilMoisture").
	Name string

	// Pretty is the human-readable name (e.g. "Soil Moisture").
	Pretty string

	// Unit is the measurement unit as displayed (e.g. "µS/cm").
	Unit string

	// DeviceClass is the Home Assistant device class, empty if none applies.
	DeviceClass string

	// Datatype is the homie datatype: "int" or "float".
	Datatype string

	// Range is the homie value range (e.g. "0:100", "0:*", "*").
	Range string

	// HomieUnit is the unit string used in homie discovery ("percent"
	// instead of "%").
	HomieUnit string

	// WirenType is the Wiren Board control meta type (e.g. "rel_humidity").
	WirenType string

	// WirenUnits is the Wiren Board control unit, empty when the meta type
	// already implies one.
	WirenUnits string
}

// mifloraParams is the Mi Flora parameter set in publish order.
var mifloraParams = []ParamSpec{
	{Param: ParamLight, Name: "LightIntensity", Pretty: "Sunlight Intensity", Unit: "lux", DeviceClass: "illuminance", Datatype: "int", Range: "0:50000", HomieUnit: "lux", WirenType: "value", WirenUnits: "lux"},
	{Param: ParamTemperature, Name: "AirTemperature", Pretty: "Air Temperature", Unit: "°C", DeviceClass: "temperature", Datatype: "float", Range: "*", HomieUnit: "°C", WirenType: "temperature"},
	{Param: ParamMoisture, Name: "SoilMoisture", Pretty: "Soil Moisture", Unit: "%", DeviceClass: "humidity", Datatype: "int", Range: "0:100", HomieUnit: "percent", WirenType: "rel_humidity"},
	{Param: ParamConductivity, Name: "SoilConductivity", Pretty: "Soil Conductivity/Fertility", Unit: "µS/cm", Datatype: "int", Range: "0:*", HomieUnit: "µS/cm", WirenType: "value", WirenUnits: "µS/cm"},
	{Param: ParamBattery, Name: "Battery", Pretty: "Sensor Battery Level", Unit: "%", DeviceClass: "battery", Datatype: "int", Range: "0:100", HomieUnit: "percent", WirenType: "value", WirenUnits: "%"},
}

// mitempbtParams is the Mijia thermometer parameter set in publish order.
var mitempbtParams = []ParamSpec{
	{Param: ParamTemperature, Name: "AirTemperature", Pretty: "Air Temperature", Unit: "°C", DeviceClass: "temperature", Datatype: "float", Range: "*", HomieUnit: "°C", WirenType: "temperature"},
	{Param: ParamHumidity, Name: "Humidity", Pretty: "Air Moisture", Unit: "%", DeviceClass: "humidity", Datatype: "int", Range: "0:100", HomieUnit: "percent", WirenType: "rel_humidity"},
	{Param: ParamBattery, Name: "Battery", Pretty: "Sensor Battery Level", Unit: "%", DeviceClass: "battery", Datatype: "int", Range: "0:100", HomieUnit: "percent", WirenType: "value", WirenUnits: "%"},
}

// TypeFormat returns the printf-style verb matching the parameter's
// precision, used in generated item labels.
func (s ParamSpec) TypeFormat() string {
	if s.Datatype == "float" {
		return "%.1f"
	}
	return "%d"
}

// FormatValue renders a parameter value the way the device reports it:
// integer parameters without decimals, float parameters with one decimal
// place. Used for raw-scalar topics and for assembling JSON payloads.
func (s ParamSpec) FormatValue(v float64) string {
	if s.Datatype == "float" {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatInt(int64(math.Round(v)), 10)
}
