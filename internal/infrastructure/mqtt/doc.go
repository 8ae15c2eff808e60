// Package mqtt provides the broker connection for reading publication.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Mode-specific Last Will and Testament (LWT) for offline detection
//   - Credential switching for brokers that authenticate per device
//   - Connection health monitoring
//
// # Architecture
//
// The daemon is a pure publisher: readings flow one way, from the polling
// workers through the reporting layer to the broker. The client therefore
// carries no subscription machinery. What the LWT says and where it goes
// depends on the reporting mode, so the will is supplied by the caller at
// connect time rather than hardcoded here.
//
//	Polling workers → Reporting layer → MQTT Broker → Consumers
//
// # Security Considerations
//
//   - TLS is recommended for brokers outside the local network
//     (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, &mqtt.Will{
//	    Topic:    "homie/plant-daemon/$online",
//	    Payload:  "false",
//	    QoS:      1,
//	    Retained: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Publish("misensor/petunia", payload, 1, false)
package mqtt
