// Package telenet sends telemetry frames over UDP.
//
// One socket bound to local address is shared by all topics.
// Destination of topic is DestPrefix + hex(topic id) on fixed port,
// e.g. topic 0x11 with prefix "fd00::" goes to [fd00::11]:5010.
// Delivery is fire-and-forget: no ack, no retry, stale or lost frame
// is better than blocked pipeline for live sensor feed.
//
// Optional mirror publishes copy of every frame to MQTT broker.
package telenet
