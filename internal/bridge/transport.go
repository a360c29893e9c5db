package bridge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/arlobright/knxlink/internal/usb"
)

// ErrTransportClosed is returned when submitting to a closed transport.
var ErrTransportClosed = errors.New("bridge: transport closed")

// ReportTransport moves fixed-width reports between the bridge and the
// interface hardware. Implementations own the HID report framing; the
// bridge only sees transfer reports and their sequence numbers.
type ReportTransport interface {
	// Submit writes an ordered report sequence to the device.
	Submit(reports []usb.Report) error

	// SetOnReport registers the callback invoked for every inbound
	// report. Must be called before Start.
	SetOnReport(fn func(seq usb.SequenceNumber, report []byte))

	// SetOnError registers the callback invoked when the read loop
	// fails. Must be called before Start.
	SetOnError(fn func(err error))

	// Start launches the read loop.
	Start() error

	// Close stops the read loop and releases the device.
	Close() error
}

// HIDTransport reads and writes 64-octet HID report frames over a raw
// stream, typically a hidraw character device.
//
// Thread Safety: Submit may be called concurrently; callbacks are
// invoked from the single read-loop goroutine.
type HIDTransport struct {
	rwc io.ReadWriteCloser

	onReport func(seq usb.SequenceNumber, report []byte)
	onError  func(err error)

	writeMu sync.Mutex

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    bool
	mu        sync.RWMutex
}

// OpenHIDTransport opens a hidraw device for reading and writing.
//
// Parameters:
//   - device: Device path, e.g. /dev/hidraw0
//
// Returns:
//   - *HIDTransport: Transport ready for Start
//   - error: If the device cannot be opened
func OpenHIDTransport(device string) (*HIDTransport, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening HID device %s: %w", device, err)
	}
	return NewHIDTransport(f), nil
}

// NewHIDTransport wraps an already-open report stream.
// Used directly in tests with an in-memory pipe.
func NewHIDTransport(rwc io.ReadWriteCloser) *HIDTransport {
	return &HIDTransport{
		rwc:  rwc,
		done: make(chan struct{}),
	}
}

// SetOnReport registers the inbound report callback.
func (t *HIDTransport) SetOnReport(fn func(seq usb.SequenceNumber, report []byte)) {
	t.onReport = fn
}

// SetOnError registers the read-loop failure callback.
func (t *HIDTransport) SetOnError(fn func(err error)) {
	t.onError = fn
}

// Start launches the read loop goroutine.
func (t *HIDTransport) Start() error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTransportClosed
	}

	t.wg.Add(1)
	go t.readLoop()
	return nil
}

// readLoop reads fixed-width frames until the device closes or an
// unrecoverable read error occurs.
func (t *HIDTransport) readLoop() {
	defer t.wg.Done()

	buf := make([]byte, usb.ReportSize)
	for {
		select {
		case <-t.done:
			return
		default:
		}

		if _, err := io.ReadFull(t.rwc, buf); err != nil {
			select {
			case <-t.done:
				// Expected during shutdown.
			default:
				if t.onError != nil {
					t.onError(fmt.Errorf("reading HID report: %w", err))
				}
			}
			return
		}

		seq, report, err := decodeReportFrame(buf)
		if err != nil {
			if t.onError != nil {
				t.onError(err)
			}
			continue
		}

		if t.onReport != nil {
			t.onReport(seq, report)
		}
	}
}

// Submit writes an ordered report sequence to the device.
// Reports are framed and written back to back under a single lock so
// interleaved transfers cannot corrupt each other.
func (t *HIDTransport) Submit(reports []usb.Report) error {
	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTransportClosed
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for i, report := range reports {
		frame := encodeReportFrame(report, i == 0, i == len(reports)-1)
		if _, err := t.rwc.Write(frame); err != nil {
			return fmt.Errorf("writing HID report %d/%d: %w", i+1, len(reports), err)
		}
	}
	return nil
}

// Close stops the read loop and closes the device.
func (t *HIDTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		close(t.done)
		err = t.rwc.Close()
		t.wg.Wait()
	})
	return err
}
