// Package reader bridges the daemon to the external sensor helper.
//
// The wireless transport is not part of the daemon. Acquisition is
// delegated to a helper command configured in config.yaml: one invocation
// per attempt, with the device class and MAC address appended as the
// final arguments. The helper prints a single JSON object on stdout
// mapping parameter wire names to numeric values, optionally including a
// "firmware" string:
//
//	$ misensor-read miflora C4:7C:8D:11:22:33
//	{"light":4275,"temperature":21.5,"moisture":33,"conductivity":210,
//	 "battery":80,"firmware":"3.2.1"}
//
// A non-zero exit, malformed output or a missing parameter is a
// transient acquisition failure; the polling layer's retry protocol
// handles it.
package reader
