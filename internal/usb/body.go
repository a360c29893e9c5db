package usb

import (
	"fmt"

	"github.com/arlobright/knxlink/internal/cemi"
)

// TransferBodyData carries the input for building one outbound body
// segment.
type TransferBodyData struct {
	// Data is the raw segment payload. For a first segment it begins
	// with the EMI message code octet.
	Data []byte

	// Partial is true for continuation segments, which ride in reports
	// without a transfer header and therefore have a larger capacity.
	Partial bool
}

// TransferBody is the body segment of a single report, first or
// continuation. It does not persist beyond one encode/decode cycle;
// cross-report accumulation belongs to the Reassembler.
type TransferBody struct {
	data    []byte
	partial bool
	valid   bool
}

// NewTransferBody builds a body segment from semantic data.
//
// The payload must fit the capacity of its segment kind: 52 octets for
// a first segment, 61 for a continuation. An over-capacity payload
// yields an invalid body and ErrCapacityExceeded; it is the
// fragmenter's job never to request one.
func NewTransferBody(data TransferBodyData) (TransferBody, error) {
	b := TransferBody{partial: data.Partial}
	if limit := maxDataSize(data.Partial); len(data.Data) > limit {
		return b, fmt.Errorf("%w: %d payload bytes, segment limit is %d (partial=%t)",
			ErrCapacityExceeded, len(data.Data), limit, data.Partial)
	}
	b.data = data.Data
	b.valid = true
	return b, nil
}

// TransferBodyFromKNX decodes a body segment from wire octets.
//
// The transport pads every report to the fixed report size, so a body
// segment is always delivered at full width: exactly 52 octets for a
// first segment, 61 for a continuation. Any other length is a
// malformed report.
//
// Parameters:
//   - data: The segment octets sliced out of a report
//   - partial: Whether the segment came from a continuation report
//
// Returns:
//   - TransferBody: Decoded body; check IsValid before use
//   - error: ErrMalformedLength on a width mismatch
func TransferBodyFromKNX(data []byte, partial bool) (TransferBody, error) {
	b := TransferBody{partial: partial}
	if limit := maxDataSize(partial); len(data) != limit {
		return b, fmt.Errorf("%w: received %d body bytes, expected %d for %s segment",
			ErrMalformedLength, len(data), limit, segmentKind(partial))
	}
	b.data = data
	b.valid = true
	return b, nil
}

// ToKNX serialises the body, right-padded with 0x00 to the fixed
// capacity of its segment kind (52 or 61 octets).
//
// Returns an empty slice for an invalid body.
func (b TransferBody) ToKNX() []byte {
	if !b.valid {
		return nil
	}
	buf := make([]byte, maxDataSize(b.partial))
	copy(buf, b.data)
	return buf
}

// Data returns the raw segment payload, including the EMI message code
// octet when this is a first segment.
func (b TransferBody) Data() []byte { return b.data }

// Length returns the payload length in octets.
func (b TransferBody) Length() int { return len(b.data) }

// Partial reports whether this is a continuation segment.
func (b TransferBody) Partial() bool { return b.partial }

// IsValid reports whether the body passed construction validation.
func (b TransferBody) IsValid() bool { return b.valid }

// EMIMessageCode returns the EMI message code carried in the first
// payload octet.
//
// It is defined only for a valid, non-empty first segment; continuation
// segments carry pure payload continuation with no message code.
func (b TransferBody) EMIMessageCode() (cemi.MessageCode, error) {
	if !b.valid || b.partial || len(b.data) == 0 {
		return 0, fmt.Errorf("%w: no message code in %s segment", ErrInvalid, segmentKind(b.partial))
	}
	return cemi.MessageCodeFromByte(b.data[0])
}

// segmentKind names a segment kind for error messages.
func segmentKind(partial bool) string {
	if partial {
		return "continuation"
	}
	return "first"
}
