package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/arlobright/knxlink/internal/usb"
)

func TestEncodeDecodeReportFrame(t *testing.T) {
	frame := make([]byte, 100)
	frame[0] = 0x29 // L_Data.ind
	for i := 1; i < len(frame); i++ {
		frame[i] = byte(i)
	}

	reports, err := usb.Fragment(frame, usb.ProtocolIDKNXTunnel, usb.EMIIDCommonEMI)
	if err != nil {
		t.Fatalf("Fragment() error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("Fragment() produced %d reports, want 2", len(reports))
	}

	for i, report := range reports {
		encoded := encodeReportFrame(report, i == 0, i == len(reports)-1)
		if len(encoded) != usb.ReportSize {
			t.Fatalf("encoded frame %d is %d octets, want %d", i, len(encoded), usb.ReportSize)
		}
		if encoded[0] != hidReportID {
			t.Errorf("frame %d report ID = 0x%02X, want 0x%02X", i, encoded[0], hidReportID)
		}

		seq, decoded, err := decodeReportFrame(encoded)
		if err != nil {
			t.Fatalf("decodeReportFrame(%d) error: %v", i, err)
		}
		if seq != report.Seq {
			t.Errorf("frame %d seq = %d, want %d", i, seq, report.Seq)
		}
		if !bytes.Equal(decoded[:usb.MaxDataSizePartial], report.Data[:usb.MaxDataSizePartial]) {
			t.Errorf("frame %d payload region does not round-trip", i)
		}
	}
}

func TestPacketTypeFlags(t *testing.T) {
	report := usb.Report{Seq: usb.SequenceNumberFirst, Data: make([]byte, usb.ReportSize)}

	tests := []struct {
		name  string
		first bool
		last  bool
		want  byte
	}{
		{name: "single", first: true, last: true, want: packetTypeStart | packetTypeEnd},
		{name: "first of many", first: true, last: false, want: packetTypeStart | packetTypePartial},
		{name: "middle", first: false, last: false, want: packetTypePartial},
		{name: "last", first: false, last: true, want: packetTypePartial | packetTypeEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := encodeReportFrame(report, tt.first, tt.last)
			if got := encoded[1] & 0x0F; got != tt.want {
				t.Errorf("packet type = 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestDecodeReportFrameRejectsMalformed(t *testing.T) {
	valid := make([]byte, usb.ReportSize)
	valid[0] = hidReportID
	valid[1] = 0x13 // seq 1, start|end

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{name: "short frame", mutate: func(f []byte) []byte { return f[:usb.ReportSize-1] }},
		{name: "long frame", mutate: func(f []byte) []byte { return append(f, 0x00) }},
		{name: "wrong report ID", mutate: func(f []byte) []byte { f[0] = 0x02; return f }},
		{name: "sequence zero", mutate: func(f []byte) []byte { f[1] = 0x03; return f }},
		{name: "sequence six", mutate: func(f []byte) []byte { f[1] = 0x64; return f }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.mutate(append([]byte(nil), valid...))
			_, _, err := decodeReportFrame(frame)
			if !errors.Is(err, ErrMalformedReportFrame) {
				t.Errorf("decodeReportFrame() error = %v, want ErrMalformedReportFrame", err)
			}
		})
	}
}
