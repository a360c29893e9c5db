package usb

import "fmt"

// Logger is the optional logging interface accepted by the Reassembler.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Reassembler consumes HID reports in arrival order and yields
// complete, validated data-link frames.
//
// It is a small state machine: Idle (no transfer in progress) and
// Collecting (header seen, accumulating continuation segments).
// Malformed or misordered reports never crash the reassembler; they
// abort only the in-flight transfer, and the report stream resumes
// cleanly with the next first report.
//
// A Reassembler owns exactly one in-flight transfer and must be driven
// by a single logical stream of reports in arrival order. It is not
// safe for concurrent feeding; use one instance per endpoint or device.
//
// There is no timeout intrinsic to this layer: a transfer whose
// continuation reports stop arriving must be bounded by a caller
// deadline that calls Reset on expiry.
type Reassembler struct {
	collecting bool
	expected   SequenceNumber
	bodyLength int
	header     TransferHeader
	buf        []byte
	reports    int

	logger Logger
}

// NewReassembler creates an idle reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// SetLogger sets the logger used for decode diagnostics.
func (r *Reassembler) SetLogger(logger Logger) {
	r.logger = logger
}

// Feed consumes one report and its sequence position.
//
// The sequence number is transport metadata associated with the report,
// not part of the header/body pair; the transport extracts it from its
// packet framing before calling Feed.
//
// Behaviour by state:
//   - Idle, seq 1: decode header and first body segment; either
//     complete a single-report transfer or start collecting.
//   - Idle, seq >1: ErrUnexpectedContinuation; the report is discarded
//     and the reassembler stays idle.
//   - Collecting, expected seq: append the continuation payload;
//     complete once the accumulated length reaches the header's body
//     length (trailing segment bytes beyond it are padding).
//   - Collecting, wrong seq: the in-flight transfer is discarded with
//     ErrSequenceGap. If the offending report is itself a first report,
//     it immediately begins a new transfer, so the returned frame may
//     be non-nil even though the error reports the aborted transfer.
//
// Parameters:
//   - seq: The report's position within its transfer
//   - report: The full fixed-width report buffer
//
// Returns:
//   - []byte: The reassembled frame, exactly body-length octets, when
//     the transfer completes; nil otherwise
//   - error: Structured decode failure naming the report index and
//     reason; never fatal beyond the current transfer
func (r *Reassembler) Feed(seq SequenceNumber, report []byte) ([]byte, error) {
	if len(report) != ReportSize {
		err := fmt.Errorf("%w: received %d report bytes, expected %d",
			ErrMalformedLength, len(report), ReportSize)
		if r.collecting {
			index := r.reports + 1
			r.Reset()
			return nil, fmt.Errorf("transfer aborted at report %d: %w", index, err)
		}
		return nil, err
	}

	if !r.collecting {
		if seq != SequenceNumberFirst {
			r.logWarn("continuation report with no transfer in progress", "seq", int(seq))
			return nil, fmt.Errorf("%w: sequence number %d while idle", ErrUnexpectedContinuation, seq)
		}
		return r.feedFirst(report)
	}

	if seq == SequenceNumberFirst {
		// A new transfer started before the previous one completed.
		// Discard the short transfer and begin the new one immediately.
		got, want := r.buf, r.bodyLength
		r.Reset()
		r.logWarn("first report interrupted in-flight transfer", "collected", len(got), "body_length", want)

		frame, err := r.feedFirst(report)
		if err != nil {
			return nil, fmt.Errorf("%w: transfer aborted at %d/%d octets by malformed first report: %w",
				ErrSequenceGap, len(got), want, err)
		}
		return frame, fmt.Errorf("%w: transfer aborted at %d/%d octets by new first report",
			ErrSequenceGap, len(got), want)
	}

	if seq != r.expected {
		r.logWarn("sequence gap or duplicate", "expected", int(r.expected), "got", int(seq))
		r.Reset()
		return nil, fmt.Errorf("%w: expected sequence %d, got %d", ErrSequenceGap, r.expected, seq)
	}

	body, err := TransferBodyFromKNX(report[:MaxDataSizePartial], true)
	if err != nil {
		r.Reset()
		return nil, err
	}

	r.buf = append(r.buf, body.Data()...)
	r.reports++
	r.expected++
	return r.finishIfComplete(), nil
}

// Reset discards any in-flight transfer and returns to idle. Callers
// enforcing a transfer deadline invoke it on expiry.
func (r *Reassembler) Reset() {
	r.collecting = false
	r.expected = 0
	r.bodyLength = 0
	r.header = TransferHeader{}
	r.buf = nil
	r.reports = 0
}

// Collecting reports whether a transfer is in progress.
func (r *Reassembler) Collecting() bool { return r.collecting }

// Header returns the transfer header of the in-flight transfer. Only
// meaningful while Collecting reports true.
func (r *Reassembler) Header() TransferHeader { return r.header }

// feedFirst decodes a first report and starts (or completes) a
// transfer. The reassembler must be idle.
func (r *Reassembler) feedFirst(report []byte) ([]byte, error) {
	header, err := TransferHeaderFromKNX(report[:TransferHeaderLength])
	if err != nil {
		r.logWarn("malformed transfer header", "error", err, "raw", fmt.Sprintf("%X", report[:TransferHeaderLength]))
		return nil, fmt.Errorf("report 1: %w", err)
	}

	bodyLength := int(header.BodyLength())
	if bodyLength == 0 {
		return nil, fmt.Errorf("report 1: %w: header declares empty body", ErrMalformedLength)
	}
	if bodyLength > MaxFrameLength {
		// No legal report sequence can satisfy the declared length.
		return nil, fmt.Errorf("report 1: %w: header declares %d body octets, frame maximum is %d",
			ErrMalformedLength, bodyLength, MaxFrameLength)
	}

	body, err := TransferBodyFromKNX(report[TransferHeaderLength:TransferHeaderLength+MaxDataSizeFirst], false)
	if err != nil {
		return nil, fmt.Errorf("report 1: %w", err)
	}

	// Advisory only: a cEMI transfer whose leading octet is not a known
	// message code is suspicious but still delivered.
	if header.EMIID() == EMIIDCommonEMI {
		if _, cerr := body.EMIMessageCode(); cerr != nil {
			r.logDebug("emi id and body message code disagree", "error", cerr)
		}
	}

	r.collecting = true
	r.expected = SequenceNumberSecond
	r.bodyLength = bodyLength
	r.header = header
	r.buf = append([]byte(nil), body.Data()...)
	r.reports = 1
	return r.finishIfComplete(), nil
}

// finishIfComplete emits the frame once enough octets have
// accumulated, truncating segment padding beyond the body length.
func (r *Reassembler) finishIfComplete() []byte {
	if len(r.buf) < r.bodyLength {
		return nil
	}
	frame := r.buf[:r.bodyLength:r.bodyLength]
	r.logDebug("transfer complete", "octets", r.bodyLength, "reports", r.reports)
	r.Reset()
	return frame
}

func (r *Reassembler) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Reassembler) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
