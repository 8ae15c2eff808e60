// Package sensor models the Xiaomi BLE sensors polled by Floralink.
//
// This package manages:
//   - The two supported device families (Mi Flora plant sensors and Mijia
//     Bluetooth temperature/humidity sensors) and their parameter sets
//   - Sensor identity derived from configuration entries
//     ("Display Name@Location" mapped to a hardware MAC address)
//   - The bounded-retry data acquisition protocol
//   - Per-sensor health counters (attempted/succeeded/failed cycles)
//   - The per-family sensor registry built at startup
//
// # Device families
//
// Mi Flora sensors report sunlight intensity, air temperature, soil moisture,
// soil conductivity and battery level. Mijia thermometers report air
// temperature, humidity and battery level. Parameter order is fixed per
// family and drives payload layout in every reporting mode.
//
// # Acquisition
//
// Talking to the hardware goes through the Reader capability interface; the
// BLE transport itself lives outside this package. Acquire makes at most two
// attempts per cycle (one retry, no backoff), probing the battery parameter
// as a liveness check, because a half-filled cache can claim success while
// the sensor is actually out of range.
//
// # Thread safety
//
// An Instance and its health counters are owned by exactly one polling
// worker. The registry is built once at startup and read-only afterwards, so
// no locking is required here.
package sensor
