package sensor

import "fmt"

// acquireAttempts bounds each acquisition at one initial attempt plus one
// immediate retry. Acquire runs with the shared adapter lock held, so
// retrying further would stall the whole family's polling cycle.
const acquireAttempts = 2

// Acquire performs one bounded-retry data acquisition for this sensor.
//
// Each attempt discards the reader's cached state, requests a full parameter
// fill, then probes the battery parameter as a liveness check: a reader
// that fills its cache but cannot yield the battery level is treated as
// failed. Transient failures retry immediately with no backoff.
//
// Health counters are mutated exactly once per call: Attempted always,
// then either Succeeded or Failed. The firmware revision is captured on the
// first successful contact.
//
// Returns:
//   - *Reading: Complete parameter snapshot for the sensor's family
//   - error: ErrAcquireFailed (wrapping the last attempt's error) when the
//     retry budget is exhausted
func (s *Instance) Acquire() (*Reading, error) {
	s.Health.Attempted++

	var lastErr error
	filled := false
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		s.Reader.ClearCache()
		if err := s.Reader.FillCache(); err != nil {
			lastErr = err
			continue
		}
		if _, err := s.Reader.ParameterValue(ParamBattery); err != nil {
			lastErr = err
			continue
		}
		filled = true
		break
	}

	if !filled {
		s.Health.Failed++
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrAcquireFailed, lastErr)
		}
		return nil, ErrAcquireFailed
	}

	reading := NewReading(s.Class)
	for _, spec := range s.Class.Params() {
		v, err := s.Reader.ParameterValue(spec.Param)
		if err != nil {
			// The cache went away between the probe and the full read.
			s.Health.Failed++
			return nil, fmt.Errorf("%w: reading %s: %w", ErrAcquireFailed, spec.Param, err)
		}
		reading.Set(spec.Param, v)
	}

	s.Health.Succeeded++
	if s.Firmware == "" {
		s.Firmware = s.Reader.FirmwareVersion()
	}
	return reading, nil
}
