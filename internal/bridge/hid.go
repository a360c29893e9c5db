package bridge

import (
	"errors"
	"fmt"

	"github.com/arlobright/knxlink/internal/usb"
)

// HID report frame constants.
//
// On the wire each 64-octet report carries a 3-octet HID report header
// (report identifier, packet info, data length) ahead of the transfer
// payload. The packet info octet holds the sequence number in its high
// nibble and the packet type flags in its low nibble.
const (
	// hidReportID identifies KNX tunnelling reports.
	hidReportID = 0x01

	// hidHeaderLength is the width of the HID report header.
	hidHeaderLength = 3

	// Packet type flags (low nibble of packet info).
	packetTypeStart   = 0x1
	packetTypeEnd     = 0x2
	packetTypePartial = 0x4
)

// ErrMalformedReportFrame is returned when a raw HID frame cannot be
// decoded into a transfer report.
var ErrMalformedReportFrame = errors.New("bridge: malformed HID report frame")

// encodeReportFrame wraps one transfer report in its HID report frame.
//
// The payload region is the fixed segment capacity; trailing padding is
// stripped downstream via the transfer header's body length, so the
// data length octet states the capacity rather than the meaningful
// octet count.
func encodeReportFrame(report usb.Report, first, last bool) []byte {
	var packetType byte
	switch {
	case first && last:
		packetType = packetTypeStart | packetTypeEnd
	case first:
		packetType = packetTypeStart | packetTypePartial
	case last:
		packetType = packetTypePartial | packetTypeEnd
	default:
		packetType = packetTypePartial
	}

	frame := make([]byte, usb.ReportSize)
	frame[0] = hidReportID
	frame[1] = byte(report.Seq)<<4 | packetType //nolint:gosec // sequence is 1..5
	frame[2] = usb.MaxDataSizePartial
	copy(frame[hidHeaderLength:], report.Data[:usb.MaxDataSizePartial])
	return frame
}

// decodeReportFrame unwraps a raw HID frame into the sequence number
// and the fixed-width transfer report expected by the reassembler.
func decodeReportFrame(frame []byte) (usb.SequenceNumber, []byte, error) {
	if len(frame) != usb.ReportSize {
		return 0, nil, fmt.Errorf("%w: %d octets, expected %d",
			ErrMalformedReportFrame, len(frame), usb.ReportSize)
	}
	if frame[0] != hidReportID {
		return 0, nil, fmt.Errorf("%w: report identifier 0x%02X, expected 0x%02X",
			ErrMalformedReportFrame, frame[0], hidReportID)
	}

	seq, err := usb.SequenceNumberFromByte(frame[1] >> 4)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrMalformedReportFrame, err)
	}

	report := make([]byte, usb.ReportSize)
	copy(report, frame[hidHeaderLength:])
	return seq, report, nil
}
