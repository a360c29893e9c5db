package bridge

import "time"

// FrameMessage is published on knxlink/bus/{interface}/rx for every
// reassembled inbound frame, and echoed on the monitor stream.
type FrameMessage struct {
	// Interface is the bus interface name from configuration.
	Interface string `json:"interface"`

	// Direction is "rx" or "tx".
	Direction string `json:"direction"`

	// MessageCode is the symbolic EMI message code, e.g. "L_Data.ind".
	MessageCode string `json:"message_code"`

	// MessageCodeByte is the raw message code octet.
	MessageCodeByte byte `json:"message_code_byte"`

	// Length is the frame length in octets.
	Length int `json:"length"`

	// Reports is the number of HID reports the frame spanned.
	Reports int `json:"reports"`

	// Payload is the complete frame, hex encoded.
	Payload string `json:"payload"`

	// Timestamp is when the frame crossed the bridge (RFC 3339).
	Timestamp time.Time `json:"timestamp"`
}

// TransmitRequest is the payload expected on knxlink/bus/{interface}/tx.
type TransmitRequest struct {
	// Payload is the complete data-link frame, hex encoded, message
	// code octet first.
	Payload string `json:"payload"`
}

// ErrorMessage is published on knxlink/bus/{interface}/error when a
// transfer cannot be decoded or a transmit request is rejected.
type ErrorMessage struct {
	// Interface is the bus interface name.
	Interface string `json:"interface"`

	// Direction is "rx" or "tx".
	Direction string `json:"direction"`

	// Reason is the short failure class, e.g. "sequence_gap".
	Reason string `json:"reason"`

	// Detail is the full error text.
	Detail string `json:"detail"`

	// Timestamp is when the failure occurred (RFC 3339).
	Timestamp time.Time `json:"timestamp"`
}

// HealthMessage is published on knxlink/system/health/{interface}.
type HealthMessage struct {
	// Interface is the bus interface name.
	Interface string `json:"interface"`

	// Healthy reports whether the transport is currently usable.
	Healthy bool `json:"healthy"`

	// Detail carries the failure text when unhealthy.
	Detail string `json:"detail,omitempty"`

	// Timestamp is when the state was observed (RFC 3339).
	Timestamp time.Time `json:"timestamp"`
}
