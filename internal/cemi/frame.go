package cemi

import (
	"errors"
	"fmt"
)

// Frame size constraints.
const (
	// maxFrameLength is the KNX extended frame format maximum.
	maxFrameLength = 263
)

// Domain errors for frame parsing.
var (
	// ErrEmptyFrame is returned when a frame has no octets.
	ErrEmptyFrame = errors.New("cemi: empty frame")

	// ErrFrameTooLarge is returned when a frame exceeds the extended
	// frame format maximum of 263 octets.
	ErrFrameTooLarge = errors.New("cemi: frame too large")
)

// Frame is a validated data-link frame: the EMI message code octet
// followed by the message payload. Frames are immutable after parsing.
type Frame struct {
	code MessageCode
	raw  []byte
}

// ParseFrame validates raw frame octets produced by the framing layer.
//
// Parameters:
//   - data: Frame octets, EMI message code first
//
// Returns:
//   - Frame: Validated frame
//   - error: ErrEmptyFrame, ErrFrameTooLarge, or ErrUnknownMessageCode
func ParseFrame(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	if len(data) > maxFrameLength {
		return Frame{}, fmt.Errorf("%w: %d octets, maximum is %d", ErrFrameTooLarge, len(data), maxFrameLength)
	}

	code, err := MessageCodeFromByte(data[0])
	if err != nil {
		return Frame{}, err
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	return Frame{code: code, raw: raw}, nil
}

// NewFrame builds a frame from a message code and payload.
//
// Parameters:
//   - code: The cEMI message code
//   - payload: Message octets following the code (may be empty)
//
// Returns:
//   - Frame: Assembled frame
//   - error: ErrFrameTooLarge if code plus payload exceeds 263 octets
func NewFrame(code MessageCode, payload []byte) (Frame, error) {
	if 1+len(payload) > maxFrameLength {
		return Frame{}, fmt.Errorf("%w: %d octets, maximum is %d", ErrFrameTooLarge, 1+len(payload), maxFrameLength)
	}
	raw := make([]byte, 1+len(payload))
	raw[0] = byte(code)
	copy(raw[1:], payload)
	return Frame{code: code, raw: raw}, nil
}

// MessageCode returns the frame's EMI message code.
func (f Frame) MessageCode() MessageCode { return f.code }

// Payload returns the frame octets following the message code.
func (f Frame) Payload() []byte { return f.raw[1:] }

// Raw returns the complete frame octets, message code first.
func (f Frame) Raw() []byte { return f.raw }

// Length returns the total frame length in octets.
func (f Frame) Length() int { return len(f.raw) }

// String returns a human-readable representation of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{%s, %d octets}", f.code, len(f.raw))
}
