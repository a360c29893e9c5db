package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "bus rx", got: topics.BusRx("knx-usb-0"), want: "knxlink/bus/knx-usb-0/rx"},
		{name: "bus tx", got: topics.BusTx("knx-usb-0"), want: "knxlink/bus/knx-usb-0/tx"},
		{name: "bus error", got: topics.BusError("knx-usb-0"), want: "knxlink/bus/knx-usb-0/error"},
		{name: "interface health", got: topics.InterfaceHealth("knx-usb-0"), want: "knxlink/system/health/knx-usb-0"},
		{name: "system status", got: topics.SystemStatus(), want: "knxlink/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildPayloads(t *testing.T) {
	online := buildOnlinePayload("knxlink")
	if online == "" {
		t.Fatal("buildOnlinePayload returned empty string")
	}
	offline := buildOfflinePayload("knxlink")
	if offline == "" {
		t.Fatal("buildOfflinePayload returned empty string")
	}
	if online == offline {
		t.Error("online and offline payloads should differ")
	}
}
