package device

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arlobright/knxlink/internal/cemi"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// FrameListener is invoked for every reassembled frame delivered to
// the registry.
//
// Listeners run synchronously on the bridge's receive path and must
// not block. A panicking listener is recovered and logged; it does not
// prevent delivery to the remaining listeners.
type FrameListener func(iface string, frame cemi.Frame)

// Handle identifies a registered listener so it can be removed later.
type Handle string

// Registry fans reassembled frames out to registered listeners.
//
// It decouples the bridge receive loop from the consumers interested
// in bus traffic (recorder, telemetry, monitor stream). All public
// methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	listeners map[Handle]FrameListener
	logger    Logger
}

// NewRegistry creates an empty listener registry.
func NewRegistry() *Registry {
	return &Registry{
		listeners: make(map[Handle]FrameListener),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// Subscribe registers a listener and returns a handle for removal.
func (r *Registry) Subscribe(listener FrameListener) Handle {
	handle := Handle(uuid.New().String())

	r.mu.Lock()
	r.listeners[handle] = listener
	r.mu.Unlock()

	return handle
}

// Unsubscribe removes a previously registered listener.
// Removing an unknown handle is a no-op.
func (r *Registry) Unsubscribe(handle Handle) {
	r.mu.Lock()
	delete(r.listeners, handle)
	r.mu.Unlock()
}

// Notify delivers a frame to every registered listener synchronously.
//
// Delivery order across listeners is unspecified. A panic in one
// listener is recovered and logged so the rest still receive the
// frame.
func (r *Registry) Notify(iface string, frame cemi.Frame) {
	r.mu.RLock()
	logger := r.logger
	listeners := make([]FrameListener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.mu.RUnlock()

	for _, listener := range listeners {
		r.deliver(listener, iface, frame, logger)
	}
}

// deliver invokes a single listener with panic recovery.
func (r *Registry) deliver(listener FrameListener, iface string, frame cemi.Frame, logger Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Warn("frame listener panic recovered",
				"interface", iface,
				"panic", rec,
			)
		}
	}()

	listener(iface, frame)
}

// Count returns the number of registered listeners.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
