package bridge

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/arlobright/knxlink/internal/usb"
)

// pipeRWC joins a read side and a write side into one stream,
// standing in for a hidraw device in tests.
type pipeRWC struct {
	reader io.Reader
	writer io.Writer

	mu     sync.Mutex
	closed bool
	closeR func() error
}

func (p *pipeRWC) Read(b []byte) (int, error)  { return p.reader.Read(b) }
func (p *pipeRWC) Write(b []byte) (int, error) { return p.writer.Write(b) }

func (p *pipeRWC) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.closeR != nil {
		return p.closeR()
	}
	return nil
}

// safeBuffer is a bytes.Buffer safe for concurrent use.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestHIDTransportReadLoop(t *testing.T) {
	pr, pw := io.Pipe()
	rwc := &pipeRWC{reader: pr, writer: io.Discard, closeR: pr.Close}
	transport := NewHIDTransport(rwc)

	type received struct {
		seq    usb.SequenceNumber
		report []byte
	}
	got := make(chan received, 8)
	transport.SetOnReport(func(seq usb.SequenceNumber, report []byte) {
		got <- received{seq: seq, report: report}
	})
	transport.SetOnError(func(err error) {
		t.Logf("transport error: %v", err)
	})

	if err := transport.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer transport.Close()

	frame := make([]byte, 70)
	frame[0] = 0x29
	reports, err := usb.Fragment(frame, usb.ProtocolIDKNXTunnel, usb.EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}

	go func() {
		for i, report := range reports {
			pw.Write(encodeReportFrame(report, i == 0, i == len(reports)-1)) //nolint:errcheck
		}
	}()

	for i, want := range reports {
		select {
		case r := <-got:
			if r.seq != want.Seq {
				t.Errorf("report %d seq = %d, want %d", i, r.seq, want.Seq)
			}
			if !bytes.Equal(r.report[:usb.MaxDataSizePartial], want.Data[:usb.MaxDataSizePartial]) {
				t.Errorf("report %d payload does not round-trip", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for report %d", i)
		}
	}
}

func TestHIDTransportSubmit(t *testing.T) {
	out := &safeBuffer{}
	rwc := &pipeRWC{reader: bytes.NewReader(nil), writer: out}
	transport := NewHIDTransport(rwc)
	defer transport.Close()

	frame := make([]byte, 150)
	frame[0] = 0x11
	reports, err := usb.Fragment(frame, usb.ProtocolIDKNXTunnel, usb.EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}

	if err := transport.Submit(reports); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	written := out.Bytes()
	if len(written) != len(reports)*usb.ReportSize {
		t.Fatalf("wrote %d octets, want %d", len(written), len(reports)*usb.ReportSize)
	}

	for i := range reports {
		chunk := written[i*usb.ReportSize : (i+1)*usb.ReportSize]
		seq, report, err := decodeReportFrame(chunk)
		if err != nil {
			t.Fatalf("decode written frame %d: %v", i, err)
		}
		if seq != reports[i].Seq {
			t.Errorf("frame %d seq = %d, want %d", i, seq, reports[i].Seq)
		}
		if !bytes.Equal(report[:usb.MaxDataSizePartial], reports[i].Data[:usb.MaxDataSizePartial]) {
			t.Errorf("frame %d payload mismatch", i)
		}
	}
}

func TestHIDTransportSubmitAfterClose(t *testing.T) {
	rwc := &pipeRWC{reader: bytes.NewReader(nil), writer: io.Discard}
	transport := NewHIDTransport(rwc)

	if err := transport.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := transport.Submit(nil); err != ErrTransportClosed {
		t.Errorf("Submit() after Close error = %v, want ErrTransportClosed", err)
	}
	if err := transport.Start(); err != ErrTransportClosed {
		t.Errorf("Start() after Close error = %v, want ErrTransportClosed", err)
	}
}

func TestHIDTransportCloseIsIdempotent(t *testing.T) {
	rwc := &pipeRWC{reader: bytes.NewReader(nil), writer: io.Discard}
	transport := NewHIDTransport(rwc)

	if err := transport.Close(); err != nil {
		t.Fatalf("first Close() error: %v", err)
	}
	if err := transport.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
