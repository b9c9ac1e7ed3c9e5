package sensor

import (
	"context"
	"fmt"
	"strings"

	"github.com/litescript/alkaid/internal/metrics"
)

// Registration is a live listener registration. Unregister stops delivery;
// no callback runs after it returns.
type Registration interface {
	Unregister()
}

// Manager is the platform's hardware sensor service.
type Manager interface {
	// HasSensor reports whether the device has a default sensor of type t.
	HasSensor(t Type) bool
	// Register starts delivering readings of type t to fn.
	Register(t Type, fn func(Reading)) (Registration, error)
}

// HardwareSource observes one hardware sensor through a Manager.
type HardwareSource struct {
	Type    Type
	Manager Manager
	Metrics *metrics.Collector
}

// NewHardwareSource builds a source for t.
func NewHardwareSource(t Type, m Manager) *HardwareSource {
	return &HardwareSource{Type: t, Manager: m}
}

// Observe emits Loading, then a Data result per reading. A missing sensor
// yields a single error and a finished stream. A failed registration yields
// an error but the stream stays open until closed.
func (h *HardwareSource) Observe(ctx context.Context) *Stream {
	s := newStream(ctx, h.Type.Key(), h.Metrics)
	name := sensorName(h.Type)

	if !h.Manager.HasSensor(h.Type) {
		s.emit(Error(fmt.Sprintf("%s sensor not available on this device", name)))
		s.Close()
		return s
	}

	s.emit(Loading())

	reg, err := h.Manager.Register(h.Type, func(r Reading) {
		s.emit(Data(r))
	})
	if err != nil {
		s.emit(Error(fmt.Sprintf("Failed to register %s sensor listener", strings.ToLower(name))))
		return s
	}
	s.onClose(reg.Unregister)
	return s
}

// sensorName is the display name without a trailing "Sensor".
func sensorName(t Type) string {
	return strings.TrimSuffix(t.DisplayName(), " Sensor")
}
