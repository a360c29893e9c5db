package usb

import (
	"encoding/binary"
	"fmt"
)

// Transfer header field values fixed by protocol version 0.
const (
	headerProtocolVersion = 0x00
	headerLengthV0        = 0x08

	// manufacturerCodeStandard marks frames that fully comply with the
	// standardised field bus protocol indicated by the protocol ID.
	manufacturerCodeStandard = 0x0000
)

// TransferHeaderData carries the semantic content needed to build a
// transfer header on the outbound path.
type TransferHeaderData struct {
	// BodyLength is the length of the logical transfer body across all
	// reports, i.e. the full data-link frame length including the EMI
	// message code octet.
	BodyLength uint16

	// ProtocolID selects the carried protocol (KNX Tunnel for frames).
	ProtocolID ProtocolID

	// EMIID identifies the EMI format of the body.
	EMIID EMIID
}

// TransferHeader is the 8-octet KNX USB Transfer Protocol Header,
// present only in the first report of a transfer.
//
// Layout (big-endian multi-octet fields):
//
//	protocol_version(1) | header_length(1) | body_length(2) |
//	protocol_id(1) | emi_id(1) | manufacturer_code(2)
//
// A header is immutable after construction. Headers built from
// TransferHeaderData are always valid; headers decoded from the wire
// are valid only if every field passed validation.
type TransferHeader struct {
	protocolVersion  uint8
	headerLength     uint8
	bodyLength       uint16
	protocolID       ProtocolID
	emiID            EMIID
	manufacturerCode uint16
	valid            bool
}

// NewTransferHeader builds a valid header from semantic data.
//
// The protocol version, header length, and manufacturer code are fixed
// to their version-0 values (0, 8, 0x0000).
func NewTransferHeader(data TransferHeaderData) TransferHeader {
	return TransferHeader{
		protocolVersion:  headerProtocolVersion,
		headerLength:     headerLengthV0,
		bodyLength:       data.BodyLength,
		protocolID:       data.ProtocolID,
		emiID:            data.EMIID,
		manufacturerCode: manufacturerCodeStandard,
		valid:            true,
	}
}

// TransferHeaderFromKNX decodes a header from raw wire octets.
//
// The input arrives from an untrusted transport, so every failure is a
// reported condition rather than a fault: the returned header is marked
// invalid and the error describes the offending field (byte count, raw
// enum value, or version/length mismatch). An invalid header must never
// be treated as present.
//
// Parameters:
//   - data: Exactly 8 octets from the start of a first report
//
// Returns:
//   - TransferHeader: Decoded header; check IsValid before use
//   - error: nil only when the header is valid
func TransferHeaderFromKNX(data []byte) (TransferHeader, error) {
	var h TransferHeader
	if len(data) != TransferHeaderLength {
		return h, fmt.Errorf("%w: received %d header bytes, expected %d",
			ErrMalformedLength, len(data), TransferHeaderLength)
	}

	h.protocolVersion = data[0]
	h.headerLength = data[1]
	h.bodyLength = binary.BigEndian.Uint16(data[2:4])
	h.manufacturerCode = binary.BigEndian.Uint16(data[6:8])

	protocolID, err := ProtocolIDFromByte(data[4])
	if err != nil {
		return h, err
	}
	h.protocolID = protocolID

	emiID, err := EMIIDFromByte(data[5])
	if err != nil {
		return h, err
	}
	h.emiID = emiID

	// Version mismatches are rejected, never coerced.
	if h.protocolVersion != headerProtocolVersion {
		return h, fmt.Errorf("%w: got version %d, only version 0 is defined",
			ErrProtocolVersionMismatch, h.protocolVersion)
	}
	if h.headerLength != headerLengthV0 {
		return h, fmt.Errorf("%w: header declares length %d, version 0 requires %d",
			ErrHeaderLengthMismatch, h.headerLength, headerLengthV0)
	}

	h.valid = true
	return h, nil
}

// ToKNX serialises the header to exactly 8 wire octets.
//
// Returns an empty slice for an invalid header; callers must check
// IsValid before relying on the serialisation length.
func (h TransferHeader) ToKNX() []byte {
	if !h.valid {
		return nil
	}
	buf := make([]byte, TransferHeaderLength)
	buf[0] = h.protocolVersion
	buf[1] = h.headerLength
	binary.BigEndian.PutUint16(buf[2:4], h.bodyLength)
	buf[4] = byte(h.protocolID)
	buf[5] = byte(h.emiID)
	binary.BigEndian.PutUint16(buf[6:8], h.manufacturerCode)
	return buf
}

// ProtocolVersion returns the declared protocol version (0).
func (h TransferHeader) ProtocolVersion() uint8 { return h.protocolVersion }

// HeaderLength returns the declared header length (8 in version 0).
func (h TransferHeader) HeaderLength() uint8 { return h.headerLength }

// BodyLength returns the length of the logical transfer body across
// all reports of the transfer.
func (h TransferHeader) BodyLength() uint16 { return h.bodyLength }

// ProtocolID returns the carried protocol identifier.
func (h TransferHeader) ProtocolID() ProtocolID { return h.protocolID }

// EMIID returns the EMI format identifier of the body.
func (h TransferHeader) EMIID() EMIID { return h.emiID }

// ManufacturerCode returns the manufacturer code (0x0000 for frames
// that fully comply with the standard protocol).
func (h TransferHeader) ManufacturerCode() uint16 { return h.manufacturerCode }

// IsValid reports whether the header passed construction validation.
func (h TransferHeader) IsValid() bool { return h.valid }

// String returns a human-readable representation of the header.
func (h TransferHeader) String() string {
	if !h.valid {
		return "TransferHeader{invalid}"
	}
	return fmt.Sprintf("TransferHeader{BodyLength:%d, Protocol:%s, EMI:%s, Manufacturer:0x%04X}",
		h.bodyLength, h.protocolID, h.emiID, h.manufacturerCode)
}
