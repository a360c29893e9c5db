package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTransferCompleted records a successfully reassembled transfer.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - iface: Interface identifier (e.g., "knx-usb-0")
//   - direction: "rx" for inbound, "tx" for outbound
//   - messageCode: The EMI message code of the reassembled frame
//   - frameBytes: Length of the data-link frame in octets
//   - reportCount: Number of HID reports the frame spanned
func (c *Client) WriteTransferCompleted(iface, direction string, messageCode byte, frameBytes, reportCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"transfers",
		map[string]string{
			"interface":    iface,
			"direction":    direction,
			"message_code": messageCodeTag(messageCode),
		},
		map[string]interface{}{
			"frame_bytes":  frameBytes,
			"report_count": reportCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTransferFailed records a transfer that could not be reassembled
// or fragmented.
//
// Parameters:
//   - iface: Interface identifier
//   - direction: "rx" for inbound, "tx" for outbound
//   - reason: Short failure class (e.g., "sequence_gap",
//     "unexpected_continuation", "malformed_length")
func (c *Client) WriteTransferFailed(iface, direction, reason string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"transfer_errors",
		map[string]string{
			"interface": iface,
			"direction": direction,
			"reason":    reason,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteInterfaceHealth records the health state of a bus interface.
//
// Parameters:
//   - iface: Interface identifier
//   - healthy: Whether the interface transport is currently usable
func (c *Client) WriteInterfaceHealth(iface string, healthy bool) {
	if !c.IsConnected() {
		return
	}

	up := 0
	if healthy {
		up = 1
	}

	point := write.NewPoint(
		"interface_health",
		map[string]string{
			"interface": iface,
		},
		map[string]interface{}{
			"up": up,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// messageCodeTag renders a message code as a fixed-width hex tag value.
func messageCodeTag(code byte) string {
	const hexDigits = "0123456789abcdef"
	return "0x" + string([]byte{hexDigits[code>>4], hexDigits[code&0x0F]})
}
