// Package bridge connects the HID report transport to MQTT.
//
// Inbound, the bridge feeds raw reports from the transport through the
// reassembler and publishes each completed frame as JSON on
// knxlink/bus/{interface}/rx; decode failures go to the error topic
// with a short reason class. Outbound, transmit requests arriving on
// knxlink/bus/{interface}/tx are fragmented into report sequences and
// written to the device.
//
// The transport layer owns the 3-octet HID report framing (report
// identifier, packet info, data length); the reassembler and
// fragmenter only ever see transfer reports and sequence numbers.
//
// An in-flight transfer is bounded by the configured transfer timeout:
// if continuation reports stop arriving, the partial state is
// discarded and reported as a failure.
package bridge
