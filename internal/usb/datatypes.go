package usb

import "fmt"

// Protocol constants from the KNX USB Transfer Protocol specification.
const (
	// ReportSize is the fixed size of a USB HID report in octets.
	ReportSize = 64

	// TransferHeaderLength is the size of the KNX USB Transfer Protocol
	// Header, present only in the first report of a transfer.
	TransferHeaderLength = 8

	// MaxDataSizeFirst is the maximum body payload in the first report
	// (the header occupies 8 of the report's usable octets).
	MaxDataSizeFirst = 52

	// MaxDataSizePartial is the maximum body payload in a continuation
	// report, which carries no header.
	MaxDataSizePartial = 61

	// MaxFrameLength is the maximum data-link frame length this layer
	// accepts: the KNX extended frame format maximum.
	MaxFrameLength = 263
)

// ProtocolID is the main protocol separator in the transfer header.
//
// An interface device connecting a host to a field bus over USB may
// carry protocols other than KNX; the protocol ID octet distinguishes
// them.
type ProtocolID uint8

// Defined protocol identifiers.
const (
	ProtocolIDKNXTunnel              ProtocolID = 0x01
	ProtocolIDMBusTunnel             ProtocolID = 0x02
	ProtocolIDBatiBusTunnel          ProtocolID = 0x03
	ProtocolIDBusAccessServerFeature ProtocolID = 0x0F
)

// ProtocolIDFromByte decodes a raw protocol ID octet.
//
// Returns:
//   - ProtocolID: The decoded identifier
//   - error: ErrUnknownEnumValue (with the raw value) if undefined
func ProtocolIDFromByte(raw byte) (ProtocolID, error) {
	switch id := ProtocolID(raw); id {
	case ProtocolIDKNXTunnel, ProtocolIDMBusTunnel, ProtocolIDBatiBusTunnel, ProtocolIDBusAccessServerFeature:
		return id, nil
	default:
		return 0, fmt.Errorf("%w: protocol ID 0x%02X", ErrUnknownEnumValue, raw)
	}
}

// String returns a human-readable protocol name.
func (p ProtocolID) String() string {
	switch p {
	case ProtocolIDKNXTunnel:
		return "KNX Tunnel"
	case ProtocolIDMBusTunnel:
		return "M-Bus Tunnel"
	case ProtocolIDBatiBusTunnel:
		return "BatiBus Tunnel"
	case ProtocolIDBusAccessServerFeature:
		return "Bus Access Server Feature Service"
	default:
		return fmt.Sprintf("ProtocolID(0x%02X)", uint8(p))
	}
}

// EMIID identifies the EMI format of the transfer body.
type EMIID uint8

// Defined EMI format identifiers.
const (
	EMIIDEMI1      EMIID = 0x01
	EMIIDEMI2      EMIID = 0x02
	EMIIDCommonEMI EMIID = 0x03
)

// EMIIDFromByte decodes a raw EMI ID octet.
//
// Returns:
//   - EMIID: The decoded identifier
//   - error: ErrUnknownEnumValue (with the raw value) if undefined
func EMIIDFromByte(raw byte) (EMIID, error) {
	switch id := EMIID(raw); id {
	case EMIIDEMI1, EMIIDEMI2, EMIIDCommonEMI:
		return id, nil
	default:
		return 0, fmt.Errorf("%w: EMI ID 0x%02X", ErrUnknownEnumValue, raw)
	}
}

// String returns a human-readable EMI format name.
func (e EMIID) String() string {
	switch e {
	case EMIIDEMI1:
		return "EMI1"
	case EMIIDEMI2:
		return "EMI2"
	case EMIIDCommonEMI:
		return "cEMI"
	default:
		return fmt.Sprintf("EMIID(0x%02X)", uint8(e))
	}
}

// SequenceNumber enumerates the position of a report within a transfer.
//
// A transfer spans at most five reports: 52 octets in the first plus
// 4×61 in continuations covers the 263-octet extended frame maximum.
type SequenceNumber uint8

// Defined sequence numbers.
const (
	SequenceNumberFirst  SequenceNumber = 1
	SequenceNumberSecond SequenceNumber = 2
	SequenceNumberThird  SequenceNumber = 3
	SequenceNumberFourth SequenceNumber = 4
	SequenceNumberFifth  SequenceNumber = 5
)

// SequenceNumberFromByte decodes a raw sequence number octet.
//
// Returns:
//   - SequenceNumber: The decoded sequence number
//   - error: ErrUnknownEnumValue (with the raw value) if outside 1..5
func SequenceNumberFromByte(raw byte) (SequenceNumber, error) {
	if raw < byte(SequenceNumberFirst) || raw > byte(SequenceNumberFifth) {
		return 0, fmt.Errorf("%w: sequence number %d", ErrUnknownEnumValue, raw)
	}
	return SequenceNumber(raw), nil
}

// MaxDataSize returns the maximum body payload for this report
// position: 52 octets for the first report, 61 for continuations.
func (s SequenceNumber) MaxDataSize() int {
	if s == SequenceNumberFirst {
		return MaxDataSizeFirst
	}
	return MaxDataSizePartial
}

// maxDataSize returns the body capacity for a segment kind.
func maxDataSize(partial bool) int {
	if partial {
		return MaxDataSizePartial
	}
	return MaxDataSizeFirst
}
