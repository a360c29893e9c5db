package device

import (
	"sync"
	"testing"

	"github.com/arlobright/knxlink/internal/cemi"
)

func testFrame(t *testing.T) cemi.Frame {
	t.Helper()
	frame, err := cemi.ParseFrame([]byte{0x29, 0x00, 0xBC, 0xD0})
	if err != nil {
		t.Fatalf("ParseFrame() error: %v", err)
	}
	return frame
}

func TestSubscribeAndNotify(t *testing.T) {
	r := NewRegistry()

	var gotIface string
	var gotFrame cemi.Frame
	r.Subscribe(func(iface string, frame cemi.Frame) {
		gotIface = iface
		gotFrame = frame
	})

	frame := testFrame(t)
	r.Notify("knx-usb-0", frame)

	if gotIface != "knx-usb-0" {
		t.Errorf("listener iface = %q, want %q", gotIface, "knx-usb-0")
	}
	if gotFrame.MessageCode() != frame.MessageCode() {
		t.Errorf("listener frame code = %v, want %v", gotFrame.MessageCode(), frame.MessageCode())
	}
}

func TestNotifyAllListeners(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	calls := 0
	for i := 0; i < 3; i++ {
		r.Subscribe(func(string, cemi.Frame) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}

	r.Notify("knx-usb-0", testFrame(t))

	if calls != 3 {
		t.Errorf("listener calls = %d, want 3", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	r := NewRegistry()

	called := false
	handle := r.Subscribe(func(string, cemi.Frame) {
		called = true
	})

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}

	r.Unsubscribe(handle)
	if r.Count() != 0 {
		t.Fatalf("Count() after Unsubscribe = %d, want 0", r.Count())
	}

	r.Notify("knx-usb-0", testFrame(t))
	if called {
		t.Error("unsubscribed listener was invoked")
	}
}

func TestUnsubscribeUnknownHandle(t *testing.T) {
	r := NewRegistry()
	r.Unsubscribe(Handle("nonexistent"))
	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	r := NewRegistry()

	r.Subscribe(func(string, cemi.Frame) {
		panic("listener failure")
	})

	called := false
	r.Subscribe(func(string, cemi.Frame) {
		called = true
	})

	r.Notify("knx-usb-0", testFrame(t))

	if !called {
		t.Error("second listener not invoked after first panicked")
	}
}

func TestConcurrentSubscribeNotify(t *testing.T) {
	r := NewRegistry()
	frame := testFrame(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			handle := r.Subscribe(func(string, cemi.Frame) {})
			r.Unsubscribe(handle)
		}()
		go func() {
			defer wg.Done()
			r.Notify("knx-usb-0", frame)
		}()
	}
	wg.Wait()
}
