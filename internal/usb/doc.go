// Package usb implements the KNX USB HID Transfer Protocol framing layer.
//
// A KNX data-link frame (EMI1/EMI2/cEMI, up to 263 octets in extended
// frame format) does not fit into a single fixed-size USB HID report.
// This package fragments outbound frames into an ordered sequence of
// 64-octet reports and reassembles inbound reports back into complete,
// validated frames. It sits directly above the raw report transport and
// below the EMI dispatch layer.
//
// # Wire Format
//
// Every report is exactly 64 octets. The first report of a transfer
// carries the 8-octet KNX USB Transfer Protocol Header followed by up
// to 52 octets of body payload; continuation reports carry up to 61
// octets of pure payload. Unused trailing octets are zero-padded and
// never counted toward the body length.
//
//	Offset  Size  Field                      Present in
//	0       1     protocol version (0x00)    first report
//	1       1     header length (0x08)       first report
//	2       2     body length (big-endian)   first report
//	4       1     protocol ID                first report
//	5       1     EMI ID                     first report
//	6       2     manufacturer code          first report
//	8..     ≤52   body payload               first report
//	0..     ≤61   body payload               continuation reports
//
// # Usage
//
// Outbound:
//
//	reports, err := usb.Fragment(frame, usb.ProtocolIDKNXTunnel, usb.EMIIDCommonEMI)
//	if err != nil {
//	    return err
//	}
//	for _, r := range reports {
//	    transport.Submit(r.Data)
//	}
//
// Inbound:
//
//	frame, err := reassembler.Feed(seq, report)
//	if err != nil {
//	    log.Warn("transfer aborted", "error", err)
//	}
//	if frame != nil {
//	    dispatch(frame)
//	}
//
// # Thread Safety
//
// Fragment and the header/body codecs are pure functions and safe for
// concurrent use. A Reassembler owns one in-flight transfer and must be
// fed from a single goroutine; use one instance per report stream.
package usb
