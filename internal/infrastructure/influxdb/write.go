package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/floralink/internal/poller"
	"github.com/nerrad567/floralink/internal/sensor"
)

// WriteReading mirrors one acquisition into the sensor_reading measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Each parameter becomes a field under its wire name, so a Mi Flora point
// carries light, temperature, moisture, conductivity and battery.
//
// Parameters:
//   - class: The device family name ("miflora", "mitempbt")
//   - name: The sensor's cleaned identifier
//   - mac: The sensor's hardware address
//   - reading: The parameter snapshot
//   - timestamp: When the acquisition completed
func (c *Client) WriteReading(class, name, mac string, reading *sensor.Reading, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{}, reading.Len())
	reading.Each(func(spec sensor.ParamSpec, value float64) {
		fields[string(spec.Param)] = value
	})

	point := write.NewPoint(
		"sensor_reading",
		map[string]string{
			"class": class,
			"name":  name,
			"mac":   mac,
		},
		fields,
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records one acquisition outcome in the availability
// measurement. Failures carry value 0, successes 1; graphing the mean
// gives each sensor's success rate over time.
func (c *Client) WriteAvailability(class, name, mac string, success bool, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	value := 0
	if success {
		value = 1
	}

	point := write.NewPoint(
		"availability",
		map[string]string{
			"class": class,
			"name":  name,
			"mac":   mac,
		},
		map[string]interface{}{
			"up": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// RecordResults mirrors a completed pass. Satisfies the worker's result
// sink: successful acquisitions land in sensor_reading, every outcome in
// availability. Writes are batched, so the error return is always nil;
// async failures surface through SetOnError.
func (c *Client) RecordResults(ctx context.Context, results []poller.Result) error {
	for _, res := range results {
		c.WriteAvailability(res.Class, res.Name, res.MAC, res.Success, res.Timestamp)
		if res.Success && res.Reading != nil {
			c.WriteReading(res.Class, res.Name, res.MAC, res.Reading, res.Timestamp)
		}
	}
	return nil
}
