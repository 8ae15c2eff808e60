package sensor

import "bytes"

// Reading is one cycle's snapshot of parameter values for one sensor.
//
// It preserves the family's parameter order so serialised payloads are
// deterministic. Readings are ephemeral: produced fresh each poll cycle and
// discarded after dispatch.
type Reading struct {
	class  Class
	values map[Param]float64
}

// NewReading creates an empty Reading for one device family.
func NewReading(class Class) *Reading {
	return &Reading{
		class:  class,
		values: make(map[Param]float64, len(class.Params())),
	}
}

// Class returns the device family the reading belongs to.
func (r *Reading) Class() Class {
	return r.class
}

// Set records one parameter value. The parameter must belong to the
// family's parameter set; values outside it are silently ignored so a
// reading never carries foreign keys.
func (r *Reading) Set(p Param, v float64) {
	if _, ok := r.class.ParamSpec(p); ok {
		r.values[p] = v
	}
}

// Get returns one parameter value and whether it is present.
func (r *Reading) Get(p Param) (float64, bool) {
	v, ok := r.values[p]
	return v, ok
}

// Len returns the number of recorded values.
func (r *Reading) Len() int {
	return len(r.values)
}

// Each calls fn for every recorded value in the family's parameter order.
func (r *Reading) Each(fn func(spec ParamSpec, value float64)) {
	for _, spec := range r.class.Params() {
		if v, ok := r.values[spec.Param]; ok {
			fn(spec, v)
		}
	}
}

// MarshalJSON serialises the reading as a JSON object keyed by wire names,
// in the family's parameter order. Integer parameters are rendered without
// decimals, float parameters with one decimal place, so repeated runs over
// the same values produce byte-identical payloads.
func (r *Reading) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	r.Each(func(spec ParamSpec, v float64) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(string(spec.Param))
		buf.WriteString(`":`)
		buf.WriteString(spec.FormatValue(v))
	})
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
