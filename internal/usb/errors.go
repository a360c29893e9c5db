package usb

import "errors"

// Domain errors for the USB framing package.
var (
	// ErrMalformedLength is returned when a report, header, or body
	// byte count is outside the set allowed by the wire format.
	ErrMalformedLength = errors.New("knxusb: malformed length")

	// ErrUnknownEnumValue is returned when a protocol ID, EMI ID, or
	// sequence number octet is outside the defined range.
	ErrUnknownEnumValue = errors.New("knxusb: unknown enum value")

	// ErrProtocolVersionMismatch is returned when a header declares a
	// protocol version other than 0.
	ErrProtocolVersionMismatch = errors.New("knxusb: protocol version mismatch")

	// ErrHeaderLengthMismatch is returned when a header declares a
	// header length other than 8.
	ErrHeaderLengthMismatch = errors.New("knxusb: header length mismatch")

	// ErrUnexpectedContinuation is returned when a continuation report
	// arrives with no transfer in progress.
	ErrUnexpectedContinuation = errors.New("knxusb: unexpected continuation report")

	// ErrSequenceGap is returned when a continuation report arrives out
	// of order (gap, repeat, or a new first report mid-transfer). The
	// in-flight transfer is discarded.
	ErrSequenceGap = errors.New("knxusb: sequence gap or duplicate")

	// ErrFrameTooLarge is returned when an outbound frame exceeds the
	// KNX extended frame maximum of 263 octets.
	ErrFrameTooLarge = errors.New("knxusb: frame too large")

	// ErrCapacityExceeded is returned when an outbound body payload
	// exceeds the capacity of its segment kind.
	ErrCapacityExceeded = errors.New("knxusb: body capacity exceeded")

	// ErrEmptyFrame is returned when an outbound frame has no octets.
	// A valid frame carries at least the EMI message code.
	ErrEmptyFrame = errors.New("knxusb: empty frame")

	// ErrInvalid is returned when serialising a header or body that
	// failed validation during construction.
	ErrInvalid = errors.New("knxusb: invalid")
)
