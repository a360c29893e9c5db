package mqtt

import "fmt"

// Topic prefixes for the knxlink MQTT namespace.
//
// Bus topics are per-interface: knxlink/bus/{interface}/{direction}.
// System topics cover the gateway process as a whole.
const (
	// TopicPrefixBus is the base for bus traffic topics.
	TopicPrefixBus = "knxlink/bus"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "knxlink/system"
)

// Topics provides builders for knxlink MQTT topics.
// Using these helpers ensures consistent topic naming across the
// codebase.
//
// Example:
//
//	topics := mqtt.Topics{}
//	rx := topics.BusRx("knx-usb-0")
//	// Returns: "knxlink/bus/knx-usb-0/rx"
type Topics struct{}

// BusRx returns the topic where reassembled inbound frames are
// published.
//
// Example: knxlink/bus/knx-usb-0/rx
func (Topics) BusRx(iface string) string {
	return fmt.Sprintf("%s/%s/rx", TopicPrefixBus, iface)
}

// BusTx returns the topic the gateway subscribes to for outbound
// frames.
//
// Example: knxlink/bus/knx-usb-0/tx
func (Topics) BusTx(iface string) string {
	return fmt.Sprintf("%s/%s/tx", TopicPrefixBus, iface)
}

// BusError returns the topic where decode failures are published.
//
// Example: knxlink/bus/knx-usb-0/error
func (Topics) BusError(iface string) string {
	return fmt.Sprintf("%s/%s/error", TopicPrefixBus, iface)
}

// InterfaceHealth returns the topic for per-interface health status.
//
// Example: knxlink/system/health/knx-usb-0
func (Topics) InterfaceHealth(iface string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefixSystem, iface)
}

// SystemStatus returns the topic for gateway online/offline status.
// The broker publishes the Last Will here on unexpected disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
