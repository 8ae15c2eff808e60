// Package influxdb mirrors sensor readings into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes and health monitoring. The
// mirror is optional: when enabled, every successful acquisition is
// written as a point alongside a per-pass availability measurement, so
// plant history can be graphed without touching the MQTT pipeline.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("miflora", "Petunia", "C4:7C:8D:11:22:33", reading, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines. The
// underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors surface through the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
