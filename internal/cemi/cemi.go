// Package cemi provides the cEMI (Common External Message Interface)
// message-code catalogue and the data-link frame wrapper exchanged
// between the host and a KNX bus interface.
//
// A data-link frame is an opaque, ordered byte sequence whose first
// octet is the EMI message code. This package does not interpret frame
// contents beyond that octet; routing, addressing, and datapoint
// translation live above this layer.
package cemi

import (
	"errors"
	"fmt"
)

// ErrUnknownMessageCode is returned when a raw octet does not map to a
// defined cEMI message code.
var ErrUnknownMessageCode = errors.New("cemi: unknown message code")

// MessageCode identifies the cEMI message type carried in the first
// octet of a data-link frame.
type MessageCode uint8

// Defined cEMI message codes.
const (
	// Link layer.
	LBusmonInd   MessageCode = 0x2B
	LDataReq     MessageCode = 0x11
	LDataInd     MessageCode = 0x29
	LDataCon     MessageCode = 0x2E
	LRawReq      MessageCode = 0x10
	LRawInd      MessageCode = 0x2D
	LRawCon      MessageCode = 0x2F
	LPollDataReq MessageCode = 0x13
	LPollDataCon MessageCode = 0x25

	// Device management.
	MPropReadReq          MessageCode = 0xFC
	MPropReadCon          MessageCode = 0xFB
	MPropWriteReq         MessageCode = 0xF6
	MPropWriteCon         MessageCode = 0xF5
	MPropInfoInd          MessageCode = 0xF7
	MFuncPropCommandReq   MessageCode = 0xF8
	MFuncPropStateReadReq MessageCode = 0xF9
	MFuncPropCon          MessageCode = 0xFA
	MResetReq             MessageCode = 0xF1
	MResetInd             MessageCode = 0xF0
)

// messageCodeNames maps defined codes to their specification names.
var messageCodeNames = map[MessageCode]string{
	LBusmonInd:            "L_Busmon.ind",
	LDataReq:              "L_Data.req",
	LDataInd:              "L_Data.ind",
	LDataCon:              "L_Data.con",
	LRawReq:               "L_Raw.req",
	LRawInd:               "L_Raw.ind",
	LRawCon:               "L_Raw.con",
	LPollDataReq:          "L_Poll_Data.req",
	LPollDataCon:          "L_Poll_Data.con",
	MPropReadReq:          "M_PropRead.req",
	MPropReadCon:          "M_PropRead.con",
	MPropWriteReq:         "M_PropWrite.req",
	MPropWriteCon:         "M_PropWrite.con",
	MPropInfoInd:          "M_PropInfo.ind",
	MFuncPropCommandReq:   "M_FuncPropCommand.req",
	MFuncPropStateReadReq: "M_FuncPropStateRead.req",
	MFuncPropCon:          "M_FuncProp.con",
	MResetReq:             "M_Reset.req",
	MResetInd:             "M_Reset.ind",
}

// MessageCodeFromByte decodes a raw message-code octet.
//
// Returns:
//   - MessageCode: The decoded code
//   - error: ErrUnknownMessageCode (with the raw value) if undefined
func MessageCodeFromByte(raw byte) (MessageCode, error) {
	code := MessageCode(raw)
	if _, ok := messageCodeNames[code]; !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownMessageCode, raw)
	}
	return code, nil
}

// String returns the specification name of the message code.
func (c MessageCode) String() string {
	if name, ok := messageCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MessageCode(0x%02X)", uint8(c))
}

// IsRequest reports whether the code is a host-to-bus request (.req).
func (c MessageCode) IsRequest() bool {
	switch c {
	case LDataReq, LRawReq, LPollDataReq, MPropReadReq, MPropWriteReq,
		MFuncPropCommandReq, MFuncPropStateReadReq, MResetReq:
		return true
	default:
		return false
	}
}

// IsConfirmation reports whether the code is a confirmation (.con).
func (c MessageCode) IsConfirmation() bool {
	switch c {
	case LDataCon, LRawCon, LPollDataCon, MPropReadCon, MPropWriteCon, MFuncPropCon:
		return true
	default:
		return false
	}
}

// IsIndication reports whether the code is a bus-to-host indication (.ind).
func (c MessageCode) IsIndication() bool {
	switch c {
	case LBusmonInd, LDataInd, LRawInd, MPropInfoInd, MResetInd:
		return true
	default:
		return false
	}
}
