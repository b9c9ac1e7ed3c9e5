package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litescript/alkaid/internal/sensor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleInterval = 5 * time.Millisecond
	cfg.LocationInterval = 5 * time.Millisecond
	return cfg
}

func TestSimulator_HardwareStream(t *testing.T) {
	sim := New(fastConfig(), nil)
	src := sensor.NewHardwareSource(sensor.Barometer, sim)

	s := src.Observe(context.Background())
	first := <-s.Results()
	assert.Equal(t, sensor.Loading(), first)

	select {
	case r := <-s.Results():
		require.True(t, r.IsData(), "got %v", r)
		v, ok := r.Reading.(sensor.Scalar)
		require.True(t, ok)
		assert.InDelta(t, 1013.2, v.Value, 0.11)
	case <-time.After(time.Second):
		t.Fatal("no reading from simulator")
	}

	assert.Equal(t, 1, sim.Active())
	s.Close()
	assert.Equal(t, 0, sim.Active())
}

func TestSimulator_ConsecutiveReadingsNeverRepeat(t *testing.T) {
	sim := New(fastConfig(), nil)
	s := sensor.NewHardwareSource(sensor.Temperature, sim).Observe(context.Background())
	defer s.Close()

	prev := sensor.Error("none yet")
	for i := 0; i < 6; i++ {
		select {
		case r := <-s.Results():
			assert.NotEqual(t, prev, r, "dedup let a repeat through at %d", i)
			prev = r
		case <-time.After(2 * time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestSimulator_MissingAndFailingSensors(t *testing.T) {
	cfg := fastConfig()
	cfg.Sensors = []sensor.Type{sensor.Light}
	cfg.FailRegister = map[sensor.Type]bool{sensor.Light: true}
	sim := New(cfg, nil)

	assert.False(t, sim.HasSensor(sensor.Humidity))
	assert.False(t, sim.HasSensor(sensor.GPS))
	assert.True(t, sim.HasSensor(sensor.Light))

	_, err := sim.Register(sensor.Light, func(sensor.Reading) {})
	assert.True(t, errors.Is(err, ErrRegisterFailed))

	sim.SetAvailable(sensor.Humidity, true)
	assert.True(t, sim.HasSensor(sensor.Humidity))
}

func TestSimulator_Location(t *testing.T) {
	cfg := fastConfig()
	cfg.StepDeg = 0.001
	sim := New(cfg, nil)

	loc, ok, err := sim.LastKnown(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg.Start, loc)

	s := sensor.NewLocationSource(sim).Observe(context.Background())
	defer s.Close()

	seen := 0
	deadline := time.After(2 * time.Second)
	for seen < 3 {
		select {
		case r := <-s.Results():
			if fix, ok := r.Location(); ok {
				assert.InDelta(t, cfg.Start.Latitude, fix.Latitude, 0.1)
				seen++
			}
		case <-deadline:
			t.Fatalf("only %d fixes", seen)
		}
	}
}

func TestSimulator_PermissionDenied(t *testing.T) {
	sim := New(fastConfig(), nil)
	sim.SetPermissions(false, false)

	_, err := sim.RequestUpdates(sensor.DefaultLocationRequest(), func(sensor.Location) {})
	assert.ErrorIs(t, err, sensor.ErrPermissionDenied)

	s := sensor.NewLocationSource(sim).Observe(context.Background())
	r := <-s.Results()
	assert.Equal(t, sensor.Error("Location permission not granted"), r)
}

func TestSimulator_LastKnownRespectsContext(t *testing.T) {
	sim := New(fastConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := sim.LastKnown(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
