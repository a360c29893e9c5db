package bridge

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arlobright/knxlink/internal/cemi"
	"github.com/arlobright/knxlink/internal/infrastructure/config"
	mqttlib "github.com/arlobright/knxlink/internal/infrastructure/mqtt"
	"github.com/arlobright/knxlink/internal/usb"
)

// Logger defines the logging interface used by the Bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqttlib.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// TrafficRecorder persists frames and failures.
// Optional - if nil, the bridge operates without recording.
type TrafficRecorder interface {
	RecordFrame(direction string, frame cemi.Frame, reportCount int)
	RecordError(reason, detail string)
}

// Telemetry writes transfer outcomes to the time-series store.
// Optional - if nil, the bridge operates without telemetry.
type Telemetry interface {
	WriteTransferCompleted(iface, direction string, messageCode byte, frameBytes, reportCount int)
	WriteTransferFailed(iface, direction, reason string)
}

// FrameObserver receives every frame that crosses the bridge.
// Optional - satisfied by *device.Registry.
type FrameObserver interface {
	Notify(iface string, frame cemi.Frame)
}

// Bridge orchestrates bidirectional translation between the HID report
// transport and MQTT. It handles:
//   - Reassembling inbound report streams into frames and publishing them
//   - Fragmenting transmit requests from MQTT into report sequences
//   - Transfer deadlines, decode failure reporting, and health updates
//
// Thread Safety: All methods are safe for concurrent use. The
// reassembler is serialized behind a mutex since reports for one
// endpoint form a single logical stream.
type Bridge struct {
	iface           string
	emiID           usb.EMIID
	qos             byte
	transferTimeout time.Duration

	mqtt      MQTTClient
	transport ReportTransport
	topics    mqttlib.Topics

	reassembler *usb.Reassembler
	deadline    *time.Timer
	feedMu      sync.Mutex

	recorder  TrafficRecorder
	telemetry Telemetry
	observer  FrameObserver

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge for a single bus interface.
//
// Parameters:
//   - cfg: Gateway configuration (interface name, EMI format, timeouts)
//   - mqttClient: Connected MQTT client
//   - transport: Report transport for the interface hardware
//
// Returns:
//   - *Bridge: Bridge ready for Start
//   - error: If the configured EMI format is unknown
func New(cfg *config.Config, mqttClient MQTTClient, transport ReportTransport) (*Bridge, error) {
	emiID, err := emiIDFromName(cfg.Interface.EMI)
	if err != nil {
		return nil, err
	}

	return &Bridge{
		iface:           cfg.Interface.Name,
		emiID:           emiID,
		qos:             byte(cfg.MQTT.QoS), //nolint:gosec // validated 0..2
		transferTimeout: cfg.TransferTimeout(),
		mqtt:            mqttClient,
		transport:       transport,
		reassembler:     usb.NewReassembler(),
	}, nil
}

// emiIDFromName maps the configured EMI format name to its identifier.
func emiIDFromName(name string) (usb.EMIID, error) {
	switch strings.ToLower(name) {
	case "emi1":
		return usb.EMIIDEMI1, nil
	case "emi2":
		return usb.EMIIDEMI2, nil
	case "cemi":
		return usb.EMIIDCommonEMI, nil
	default:
		return 0, fmt.Errorf("unknown EMI format %q", name)
	}
}

// SetRecorder sets the optional traffic recorder.
func (b *Bridge) SetRecorder(r TrafficRecorder) { b.recorder = r }

// SetTelemetry sets the optional telemetry writer.
func (b *Bridge) SetTelemetry(t Telemetry) { b.telemetry = t }

// SetObserver sets the optional frame observer.
func (b *Bridge) SetObserver(o FrameObserver) { b.observer = o }

// SetLogger sets the logger for the bridge and its reassembler.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.reassembler.SetLogger(logger)
}

// Start wires the transport and MQTT subscriptions and begins moving
// frames. It returns once the read loop is running.
func (b *Bridge) Start() error {
	b.transport.SetOnReport(b.handleReport)
	b.transport.SetOnError(b.handleTransportError)

	if err := b.transport.Start(); err != nil {
		return fmt.Errorf("starting transport: %w", err)
	}

	if err := b.mqtt.Subscribe(b.topics.BusTx(b.iface), b.qos, b.handleTransmit); err != nil {
		return fmt.Errorf("subscribing to transmit topic: %w", err)
	}

	b.publishHealth(true, "")
	b.logInfo("bridge started", "interface", b.iface, "emi", b.emiID.String())
	return nil
}

// Stop discards any in-flight transfer and closes the transport.
func (b *Bridge) Stop() {
	b.feedMu.Lock()
	b.stopDeadlineLocked()
	b.reassembler.Reset()
	b.feedMu.Unlock()

	if err := b.transport.Close(); err != nil {
		b.logError("closing transport", err)
	}

	b.publishHealth(false, "shutting down")
	b.logInfo("bridge stopped", "interface", b.iface)
}

// handleReport feeds one inbound report through the reassembler.
// Invoked from the transport read loop.
func (b *Bridge) handleReport(seq usb.SequenceNumber, report []byte) {
	b.feedMu.Lock()
	frame, err := b.reassembler.Feed(seq, report)
	if b.reassembler.Collecting() {
		b.resetDeadlineLocked()
	} else {
		b.stopDeadlineLocked()
	}
	b.feedMu.Unlock()

	if err != nil {
		b.reportFailure("rx", err)
	}
	if frame != nil {
		b.deliverInbound(frame)
	}
}

// deliverInbound parses and publishes a reassembled frame.
func (b *Bridge) deliverInbound(raw []byte) {
	frame, err := cemi.ParseFrame(raw)
	if err != nil {
		b.reportFailure("rx", err)
		return
	}

	reports := reportCount(frame.Length())
	msg := FrameMessage{
		Interface:       b.iface,
		Direction:       "rx",
		MessageCode:     frame.MessageCode().String(),
		MessageCodeByte: byte(frame.MessageCode()),
		Length:          frame.Length(),
		Reports:         reports,
		Payload:         hex.EncodeToString(frame.Raw()),
		Timestamp:       time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("encoding frame message", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.BusRx(b.iface), payload, b.qos, false); err != nil {
		b.logError("publishing inbound frame", err)
	}

	if b.observer != nil {
		b.observer.Notify(b.iface, frame)
	}
	if b.recorder != nil {
		b.recorder.RecordFrame("rx", frame, reports)
	}
	if b.telemetry != nil {
		b.telemetry.WriteTransferCompleted(b.iface, "rx", byte(frame.MessageCode()), frame.Length(), reports)
	}

	b.logDebug("inbound frame delivered", "code", frame.MessageCode().String(), "octets", frame.Length())
}

// handleTransmit processes a transmit request from MQTT.
func (b *Bridge) handleTransmit(_ string, payload []byte) error {
	var req TransmitRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		b.reportFailure("tx", fmt.Errorf("decoding transmit request: %w", err))
		return nil
	}

	raw, err := hex.DecodeString(req.Payload)
	if err != nil {
		b.reportFailure("tx", fmt.Errorf("decoding transmit payload: %w", err))
		return nil
	}

	frame, err := cemi.ParseFrame(raw)
	if err != nil {
		b.reportFailure("tx", err)
		return nil
	}

	reports, err := usb.Fragment(frame.Raw(), usb.ProtocolIDKNXTunnel, b.emiID)
	if err != nil {
		b.reportFailure("tx", err)
		return nil
	}

	if err := b.transport.Submit(reports); err != nil {
		b.reportFailure("tx", err)
		return nil
	}

	if b.recorder != nil {
		b.recorder.RecordFrame("tx", frame, len(reports))
	}
	if b.telemetry != nil {
		b.telemetry.WriteTransferCompleted(b.iface, "tx", byte(frame.MessageCode()), frame.Length(), len(reports))
	}

	b.logDebug("outbound frame submitted", "code", frame.MessageCode().String(), "reports", len(reports))
	return nil
}

// handleTransportError reacts to a failed read loop.
func (b *Bridge) handleTransportError(err error) {
	if errors.Is(err, ErrMalformedReportFrame) {
		b.reportFailure("rx", err)
		return
	}

	b.logError("transport failure", err)
	b.publishHealth(false, err.Error())
}

// onDeadline fires when a transfer's continuation reports stop
// arriving within the configured timeout.
func (b *Bridge) onDeadline() {
	b.feedMu.Lock()
	expired := b.reassembler.Collecting()
	if expired {
		b.reassembler.Reset()
	}
	b.deadline = nil
	b.feedMu.Unlock()

	if expired {
		b.reportFailure("rx", fmt.Errorf("transfer deadline of %v exceeded", b.transferTimeout))
	}
}

// resetDeadlineLocked arms or rearms the transfer deadline.
// Caller must hold feedMu.
func (b *Bridge) resetDeadlineLocked() {
	if b.deadline != nil {
		b.deadline.Stop()
	}
	b.deadline = time.AfterFunc(b.transferTimeout, b.onDeadline)
}

// stopDeadlineLocked disarms the transfer deadline.
// Caller must hold feedMu.
func (b *Bridge) stopDeadlineLocked() {
	if b.deadline != nil {
		b.deadline.Stop()
		b.deadline = nil
	}
}

// reportFailure publishes, records, and counts a decode failure.
func (b *Bridge) reportFailure(direction string, err error) {
	reason := failureReason(err)
	b.logWarn("transfer failure", "direction", direction, "reason", reason, "error", err)

	msg := ErrorMessage{
		Interface: b.iface,
		Direction: direction,
		Reason:    reason,
		Detail:    err.Error(),
		Timestamp: time.Now().UTC(),
	}
	if payload, merr := json.Marshal(msg); merr == nil {
		if perr := b.mqtt.Publish(b.topics.BusError(b.iface), payload, b.qos, false); perr != nil {
			b.logError("publishing error message", perr)
		}
	}

	if b.recorder != nil {
		b.recorder.RecordError(reason, err.Error())
	}
	if b.telemetry != nil {
		b.telemetry.WriteTransferFailed(b.iface, direction, reason)
	}
}

// publishHealth publishes the interface health state (retained).
func (b *Bridge) publishHealth(healthy bool, detail string) {
	msg := HealthMessage{
		Interface: b.iface,
		Healthy:   healthy,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := b.mqtt.Publish(b.topics.InterfaceHealth(b.iface), payload, b.qos, true); err != nil {
		b.logError("publishing health", err)
	}
}

// failureReason maps a decode failure to its short class name.
func failureReason(err error) string {
	switch {
	case errors.Is(err, usb.ErrSequenceGap):
		return "sequence_gap"
	case errors.Is(err, usb.ErrUnexpectedContinuation):
		return "unexpected_continuation"
	case errors.Is(err, usb.ErrProtocolVersionMismatch):
		return "protocol_version_mismatch"
	case errors.Is(err, usb.ErrHeaderLengthMismatch):
		return "header_length_mismatch"
	case errors.Is(err, usb.ErrUnknownEnumValue):
		return "unknown_enum"
	case errors.Is(err, usb.ErrMalformedLength):
		return "malformed_length"
	case errors.Is(err, usb.ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, usb.ErrEmptyFrame):
		return "empty_frame"
	case errors.Is(err, cemi.ErrUnknownMessageCode):
		return "unknown_message_code"
	case errors.Is(err, cemi.ErrFrameTooLarge):
		return "frame_too_large"
	case errors.Is(err, cemi.ErrEmptyFrame):
		return "empty_frame"
	case errors.Is(err, ErrMalformedReportFrame):
		return "malformed_report_frame"
	default:
		return "decode_error"
	}
}

// reportCount returns the number of reports a frame of the given
// length spans on the wire.
func reportCount(frameLen int) int {
	if frameLen <= usb.MaxDataSizeFirst {
		return 1
	}
	remaining := frameLen - usb.MaxDataSizeFirst
	return 1 + (remaining+usb.MaxDataSizePartial-1)/usb.MaxDataSizePartial
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	if b.logger != nil {
		b.logger.Error(msg, "error", err)
	}
}
