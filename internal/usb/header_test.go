package usb

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewTransferHeader(t *testing.T) {
	h := NewTransferHeader(TransferHeaderData{
		BodyLength: 16,
		ProtocolID: ProtocolIDKNXTunnel,
		EMIID:      EMIIDCommonEMI,
	})

	if !h.IsValid() {
		t.Fatal("IsValid() = false, want true")
	}
	if h.ProtocolVersion() != 0 {
		t.Errorf("ProtocolVersion() = %d, want 0", h.ProtocolVersion())
	}
	if h.HeaderLength() != 8 {
		t.Errorf("HeaderLength() = %d, want 8", h.HeaderLength())
	}
	if h.BodyLength() != 16 {
		t.Errorf("BodyLength() = %d, want 16", h.BodyLength())
	}
	if h.ManufacturerCode() != 0 {
		t.Errorf("ManufacturerCode() = 0x%04X, want 0x0000", h.ManufacturerCode())
	}
}

func TestTransferHeaderToKNX(t *testing.T) {
	h := NewTransferHeader(TransferHeaderData{
		BodyLength: 0x0110, // 272: exercises the high octet
		ProtocolID: ProtocolIDKNXTunnel,
		EMIID:      EMIIDCommonEMI,
	})

	want := []byte{0x00, 0x08, 0x01, 0x10, 0x01, 0x03, 0x00, 0x00}
	if got := h.ToKNX(); !bytes.Equal(got, want) {
		t.Errorf("ToKNX() = %X, want %X", got, want)
	}
}

func TestTransferHeaderToKNXInvalid(t *testing.T) {
	// A zero-value header never passed validation.
	var h TransferHeader
	if got := h.ToKNX(); len(got) != 0 {
		t.Errorf("ToKNX() on invalid header = %X, want empty", got)
	}
}

func TestTransferHeaderFromKNX(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
		want    TransferHeaderData
	}{
		{
			name: "valid cEMI tunnel header",
			data: []byte{0x00, 0x08, 0x00, 0x0D, 0x01, 0x03, 0x00, 0x00},
			want: TransferHeaderData{BodyLength: 13, ProtocolID: ProtocolIDKNXTunnel, EMIID: EMIIDCommonEMI},
		},
		{
			name: "valid EMI1 header with large body",
			data: []byte{0x00, 0x08, 0x01, 0x07, 0x01, 0x01, 0x00, 0x00},
			want: TransferHeaderData{BodyLength: 263, ProtocolID: ProtocolIDKNXTunnel, EMIID: EMIIDEMI1},
		},
		{
			name:    "too short (7 octets)",
			data:    []byte{0x00, 0x08, 0x00, 0x0D, 0x01, 0x03, 0x00},
			wantErr: ErrMalformedLength,
		},
		{
			name:    "too long (9 octets)",
			data:    []byte{0x00, 0x08, 0x00, 0x0D, 0x01, 0x03, 0x00, 0x00, 0x00},
			wantErr: ErrMalformedLength,
		},
		{
			name:    "empty input",
			data:    nil,
			wantErr: ErrMalformedLength,
		},
		{
			name:    "unknown protocol ID",
			data:    []byte{0x00, 0x08, 0x00, 0x0D, 0x7F, 0x03, 0x00, 0x00},
			wantErr: ErrUnknownEnumValue,
		},
		{
			name:    "unknown EMI ID",
			data:    []byte{0x00, 0x08, 0x00, 0x0D, 0x01, 0x09, 0x00, 0x00},
			wantErr: ErrUnknownEnumValue,
		},
		{
			name:    "protocol version 1 rejected",
			data:    []byte{0x01, 0x08, 0x00, 0x0D, 0x01, 0x03, 0x00, 0x00},
			wantErr: ErrProtocolVersionMismatch,
		},
		{
			name:    "header length 7 rejected",
			data:    []byte{0x00, 0x07, 0x00, 0x0D, 0x01, 0x03, 0x00, 0x00},
			wantErr: ErrHeaderLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := TransferHeaderFromKNX(tt.data)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if h.IsValid() {
					t.Error("IsValid() = true for malformed header")
				}
				if got := h.ToKNX(); len(got) != 0 {
					t.Errorf("ToKNX() on invalid header = %X, want empty", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !h.IsValid() {
				t.Fatal("IsValid() = false, want true")
			}
			if h.BodyLength() != tt.want.BodyLength {
				t.Errorf("BodyLength() = %d, want %d", h.BodyLength(), tt.want.BodyLength)
			}
			if h.ProtocolID() != tt.want.ProtocolID {
				t.Errorf("ProtocolID() = %v, want %v", h.ProtocolID(), tt.want.ProtocolID)
			}
			if h.EMIID() != tt.want.EMIID {
				t.Errorf("EMIID() = %v, want %v", h.EMIID(), tt.want.EMIID)
			}
		})
	}
}

func TestTransferHeaderRoundTrip(t *testing.T) {
	tests := []TransferHeaderData{
		{BodyLength: 1, ProtocolID: ProtocolIDKNXTunnel, EMIID: EMIIDCommonEMI},
		{BodyLength: 52, ProtocolID: ProtocolIDKNXTunnel, EMIID: EMIIDEMI1},
		{BodyLength: 53, ProtocolID: ProtocolIDKNXTunnel, EMIID: EMIIDEMI2},
		{BodyLength: 263, ProtocolID: ProtocolIDBusAccessServerFeature, EMIID: EMIIDCommonEMI},
	}

	for _, data := range tests {
		encoded := NewTransferHeader(data).ToKNX()
		decoded, err := TransferHeaderFromKNX(encoded)
		if err != nil {
			t.Fatalf("TransferHeaderFromKNX(%X) error: %v", encoded, err)
		}

		if decoded.BodyLength() != data.BodyLength {
			t.Errorf("BodyLength() = %d, want %d", decoded.BodyLength(), data.BodyLength)
		}
		if decoded.ProtocolID() != data.ProtocolID {
			t.Errorf("ProtocolID() = %v, want %v", decoded.ProtocolID(), data.ProtocolID)
		}
		if decoded.EMIID() != data.EMIID {
			t.Errorf("EMIID() = %v, want %v", decoded.EMIID(), data.EMIID)
		}
	}
}
