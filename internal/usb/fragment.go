package usb

import "fmt"

// Report is one fixed-width HID report produced by fragmentation,
// tagged with its position within the transfer.
type Report struct {
	// Seq is the report's position within the transfer (1..5).
	Seq SequenceNumber

	// Data is the full report buffer, always exactly ReportSize octets
	// with unused trailing octets zero-padded.
	Data []byte
}

// Fragment splits a complete data-link frame into an ordered sequence
// of fixed-width reports.
//
// The first report carries the transfer header (with the total frame
// length as body length) followed by up to 52 payload octets; each
// continuation report carries up to 61 further octets. The final report
// is zero-padded, never truncated; padding octets are not counted in
// the header's body length and are stripped by the receiver.
//
// Fragment is a one-shot, stateless operation and is safe to invoke
// concurrently for independent frames.
//
// Parameters:
//   - frame: The data-link frame, EMI message code octet first
//   - protocolID: Carried protocol, ProtocolIDKNXTunnel for KNX frames
//   - emiID: EMI format of the frame
//
// Returns:
//   - []Report: Ordered reports ready for the transport
//   - error: ErrEmptyFrame or ErrFrameTooLarge; no reports are emitted
//     on error, so an over-limit frame never reaches the wire partially
func Fragment(frame []byte, protocolID ProtocolID, emiID EMIID) ([]Report, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	if len(frame) > MaxFrameLength {
		return nil, fmt.Errorf("%w: frame is %d octets, maximum is %d",
			ErrFrameTooLarge, len(frame), MaxFrameLength)
	}

	header := NewTransferHeader(TransferHeaderData{
		BodyLength: uint16(len(frame)), //nolint:gosec // bounded by MaxFrameLength above
		ProtocolID: protocolID,
		EMIID:      emiID,
	})

	// First report: header + first body segment.
	first := min(len(frame), MaxDataSizeFirst)
	body, err := NewTransferBody(TransferBodyData{Data: frame[:first], Partial: false})
	if err != nil {
		return nil, err
	}

	buf := make([]byte, ReportSize)
	copy(buf, header.ToKNX())
	copy(buf[TransferHeaderLength:], body.ToKNX())
	reports := []Report{{Seq: SequenceNumberFirst, Data: buf}}

	// Continuation reports: pure payload, chained sequence numbers.
	seq := SequenceNumberFirst
	for offset := first; offset < len(frame); {
		seq++
		chunk := min(len(frame)-offset, MaxDataSizePartial)
		body, err := NewTransferBody(TransferBodyData{Data: frame[offset : offset+chunk], Partial: true})
		if err != nil {
			return nil, err
		}

		buf := make([]byte, ReportSize)
		copy(buf, body.ToKNX())
		reports = append(reports, Report{Seq: seq, Data: buf})
		offset += chunk
	}

	return reports, nil
}
