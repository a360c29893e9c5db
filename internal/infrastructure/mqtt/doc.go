// Package mqtt provides the MQTT client for the knxlink gateway.
//
// It wraps paho.mqtt.golang with connection management, Last Will and
// Testament for offline detection, automatic re-subscription after
// reconnect, and panic-safe message handlers.
//
// Topic layout:
//
//	knxlink/bus/{interface}/rx      reassembled inbound frames
//	knxlink/bus/{interface}/tx      outbound frame requests
//	knxlink/bus/{interface}/error   decode failures
//	knxlink/system/status           gateway online/offline (retained, LWT)
//	knxlink/system/health/{iface}   per-interface health
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.BusTx("knx-usb-0"), 1, onTxRequest)
package mqtt
