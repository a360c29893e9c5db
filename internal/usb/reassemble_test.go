package usb

import (
	"bytes"
	"errors"
	"testing"
)

// feedAll feeds a fragmented report sequence into r and returns the
// frame produced by the final report.
func feedAll(t *testing.T, r *Reassembler, reports []Report) []byte {
	t.Helper()
	for i, rep := range reports {
		frame, err := r.Feed(rep.Seq, rep.Data)
		if err != nil {
			t.Fatalf("Feed(report %d) error: %v", i+1, err)
		}
		if frame != nil && i != len(reports)-1 {
			t.Fatalf("Feed(report %d) returned a frame before the final report", i+1)
		}
		if i == len(reports)-1 {
			return frame
		}
	}
	return nil
}

func TestReassembleRoundTrip(t *testing.T) {
	// Fragment → reassemble is bit-identical across segment boundaries.
	lengths := []int{1, 2, 13, 51, 52, 53, 112, 113, 114, 174, 175, 200, 262, 263}

	for _, length := range lengths {
		frame := testFrame(length)
		reports, err := Fragment(frame, ProtocolIDKNXTunnel, EMIIDCommonEMI)
		if err != nil {
			t.Fatalf("Fragment(%d octets) error: %v", length, err)
		}

		r := NewReassembler()
		got := feedAll(t, r, reports)
		if got == nil {
			t.Fatalf("length %d: no frame after final report", length)
		}
		if !bytes.Equal(got, frame) {
			t.Errorf("length %d: frame = %X, want %X", length, got, frame)
		}
		if r.Collecting() {
			t.Errorf("length %d: Collecting() = true after completion", length)
		}
	}
}

func TestReassembleSingleReportBoundary(t *testing.T) {
	// A 52-octet frame is a single-report transfer.
	reports, err := Fragment(testFrame(52), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(reports))
	}

	r := NewReassembler()
	frame, err := r.Feed(reports[0].Seq, reports[0].Data)
	if err != nil {
		t.Fatalf("Feed() error: %v", err)
	}
	if len(frame) != 52 {
		t.Fatalf("len(frame) = %d, want 52", len(frame))
	}
}

func TestReassembleUnexpectedContinuation(t *testing.T) {
	r := NewReassembler()

	frame, err := r.Feed(SequenceNumberSecond, make([]byte, ReportSize))
	if !errors.Is(err, ErrUnexpectedContinuation) {
		t.Fatalf("error = %v, want ErrUnexpectedContinuation", err)
	}
	if frame != nil {
		t.Fatal("Feed() returned a frame for an orphan continuation")
	}
	if r.Collecting() {
		t.Fatal("Collecting() = true, reassembler should stay idle")
	}

	// The reassembler is ready for the next first report.
	reports, err := Fragment(testFrame(10), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if got := feedAll(t, r, reports); got == nil {
		t.Fatal("no frame after recovery")
	}
}

func TestReassembleSequenceGap(t *testing.T) {
	reports, err := Fragment(testFrame(200), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if len(reports) < 4 {
		t.Fatalf("len(reports) = %d, want at least 4", len(reports))
	}

	r := NewReassembler()
	if _, err := r.Feed(reports[0].Seq, reports[0].Data); err != nil {
		t.Fatalf("Feed(first) error: %v", err)
	}

	// Skip report #2, feed #3.
	frame, err := r.Feed(reports[2].Seq, reports[2].Data)
	if !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("error = %v, want ErrSequenceGap", err)
	}
	if frame != nil {
		t.Fatal("Feed() returned a frame despite the gap")
	}
	if r.Collecting() {
		t.Fatal("Collecting() = true, transfer should be discarded")
	}
}

func TestReassembleDuplicateReport(t *testing.T) {
	reports, err := Fragment(testFrame(120), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}

	r := NewReassembler()
	if _, err := r.Feed(reports[0].Seq, reports[0].Data); err != nil {
		t.Fatalf("Feed(first) error: %v", err)
	}
	if _, err := r.Feed(reports[1].Seq, reports[1].Data); err != nil {
		t.Fatalf("Feed(second) error: %v", err)
	}

	// Repeat #2.
	if _, err := r.Feed(reports[1].Seq, reports[1].Data); !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("error = %v, want ErrSequenceGap", err)
	}
}

func TestReassembleInterruptedByNewFirst(t *testing.T) {
	long, err := Fragment(testFrame(200), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment(long) error: %v", err)
	}
	short := testFrame(20)
	shortReports, err := Fragment(short, ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment(short) error: %v", err)
	}

	r := NewReassembler()
	if _, err := r.Feed(long[0].Seq, long[0].Data); err != nil {
		t.Fatalf("Feed(first) error: %v", err)
	}

	// The interrupting first report aborts the long transfer and begins
	// the short one in the same call.
	frame, err := r.Feed(shortReports[0].Seq, shortReports[0].Data)
	if !errors.Is(err, ErrSequenceGap) {
		t.Fatalf("error = %v, want ErrSequenceGap", err)
	}
	if !bytes.Equal(frame, short) {
		t.Errorf("frame = %X, want the interrupting transfer %X", frame, short)
	}
}

func TestReassembleMalformedFirstReport(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(report []byte)
		wantErr error
	}{
		{
			name:    "unknown protocol ID",
			mutate:  func(report []byte) { report[4] = 0x7F },
			wantErr: ErrUnknownEnumValue,
		},
		{
			name:    "bad protocol version",
			mutate:  func(report []byte) { report[0] = 0x02 },
			wantErr: ErrProtocolVersionMismatch,
		},
		{
			name:    "bad header length",
			mutate:  func(report []byte) { report[1] = 0x09 },
			wantErr: ErrHeaderLengthMismatch,
		},
		{
			name:    "declared body length zero",
			mutate:  func(report []byte) { report[2], report[3] = 0x00, 0x00 },
			wantErr: ErrMalformedLength,
		},
		{
			name:    "declared body length beyond frame maximum",
			mutate:  func(report []byte) { report[2], report[3] = 0x01, 0x20 }, // 288
			wantErr: ErrMalformedLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := Fragment(testFrame(30), ProtocolIDKNXTunnel, EMIIDCommonEMI)
			if err != nil {
				t.Fatalf("Fragment() error: %v", err)
			}
			report := append([]byte(nil), reports[0].Data...)
			tt.mutate(report)

			r := NewReassembler()
			frame, err := r.Feed(SequenceNumberFirst, report)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if frame != nil {
				t.Fatal("Feed() returned a frame for a malformed first report")
			}
			if r.Collecting() {
				t.Fatal("Collecting() = true after malformed first report")
			}
		})
	}
}

func TestReassembleWrongReportWidth(t *testing.T) {
	r := NewReassembler()

	// Idle: a short report is rejected, state stays idle.
	if _, err := r.Feed(SequenceNumberFirst, make([]byte, 63)); !errors.Is(err, ErrMalformedLength) {
		t.Fatalf("error = %v, want ErrMalformedLength", err)
	}

	// Collecting: a short report aborts the in-flight transfer.
	reports, err := Fragment(testFrame(120), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if _, err := r.Feed(reports[0].Seq, reports[0].Data); err != nil {
		t.Fatalf("Feed(first) error: %v", err)
	}
	if _, err := r.Feed(reports[1].Seq, make([]byte, 65)); !errors.Is(err, ErrMalformedLength) {
		t.Fatalf("error = %v, want ErrMalformedLength", err)
	}
	if r.Collecting() {
		t.Fatal("Collecting() = true after malformed report")
	}
}

func TestReassemblerReset(t *testing.T) {
	reports, err := Fragment(testFrame(120), ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}

	r := NewReassembler()
	if _, err := r.Feed(reports[0].Seq, reports[0].Data); err != nil {
		t.Fatalf("Feed(first) error: %v", err)
	}
	if !r.Collecting() {
		t.Fatal("Collecting() = false mid-transfer")
	}

	// Deadline expiry at the session layer.
	r.Reset()
	if r.Collecting() {
		t.Fatal("Collecting() = true after Reset")
	}

	// The stream resumes with a fresh first report.
	frame := feedAll(t, r, reports)
	if frame == nil {
		t.Fatal("no frame after Reset and replay")
	}
}

func TestReassemblePaddingStripped(t *testing.T) {
	// 60 octets: second report carries 8 payload octets + 53 padding.
	frame := testFrame(60)
	reports, err := Fragment(frame, ProtocolIDKNXTunnel, EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}

	r := NewReassembler()
	got := feedAll(t, r, reports)
	if len(got) != 60 {
		t.Fatalf("len(frame) = %d, want 60 (padding must be stripped by body length)", len(got))
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("frame = %X, want %X", got, frame)
	}
}
