package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/loafoe/go-senec"
)

type fakeReader struct {
	calls   atomic.Int32
	sensors []*senec.Sensor
	err     error
}

func (f *fakeReader) Read(_ context.Context) ([]*senec.Sensor, error) {
	f.calls.Add(1)
	return f.sensors, f.err
}

type recordingSink struct {
	snapshots []Snapshot
	err       error
}

func (r *recordingSink) Publish(_ context.Context, snapshot Snapshot) error {
	r.snapshots = append(r.snapshots, snapshot)
	return r.err
}

func houseSensor(t *testing.T, raw string) *senec.Sensor {
	t.Helper()
	s := senec.NewSensor("GUI_HOUSE_POW", "house_power", "W", nil)
	_, err := s.ExtractValue(map[string]any{"GUI_HOUSE_POW": raw})
	require.NoError(t, err)
	return s
}

func TestPollStoresCopy(t *testing.T) {
	sensor := houseSensor(t, "fl:43488000")
	reader := &fakeReader{sensors: []*senec.Sensor{sensor}}
	sink := &recordingSink{err: errors.New("broker down")}
	p := New(reader, time.Second, zaptest.NewLogger(t), sink)

	require.NoError(t, p.Poll(context.Background()))

	latest := p.Latest()
	require.Len(t, latest.Readings, 1)
	assert.Equal(t, "house_power", latest.Readings[0].Name)
	assert.Equal(t, "W", latest.Readings[0].Unit)
	assert.NoError(t, latest.Err)
	assert.Len(t, sink.snapshots, 1)

	// later extraction does not leak into the stored snapshot
	_, err := sensor.ExtractValue(map[string]any{"GUI_HOUSE_POW": "fl:3F800000"})
	require.NoError(t, err)
	f, _ := p.Latest().Readings[0].Value.Float()
	assert.Equal(t, 200.5, f)
}

func TestPollFailure(t *testing.T) {
	reader := &fakeReader{err: &senec.ReadError{Message: "timeout"}}
	sink := &recordingSink{}
	p := New(reader, time.Second, zaptest.NewLogger(t), sink)

	err := p.Poll(context.Background())
	assert.ErrorIs(t, err, senec.ErrReadFailed)
	assert.ErrorIs(t, p.Latest().Err, senec.ErrReadFailed)
	assert.Empty(t, p.Latest().Readings)
	assert.Empty(t, sink.snapshots)
}

func TestRunStopsOnCancel(t *testing.T) {
	reader := &fakeReader{sensors: []*senec.Sensor{houseSensor(t, "u8:01")}}
	// cron logs its stop from its own goroutine, possibly after the test ends
	p := New(reader, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return reader.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunRejectsSubSecondInterval(t *testing.T) {
	reader := &fakeReader{}
	p := New(reader, 200*time.Millisecond, zap.NewNop())

	err := p.Run(context.Background())
	assert.ErrorContains(t, err, "below")
	assert.Zero(t, reader.calls.Load())
}
