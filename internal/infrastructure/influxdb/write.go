package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// callMeasurement is the measurement name for relay call samples.
const callMeasurement = "autoremote_calls"

// RecordCall writes one relay call sample. It implements autoremote.Recorder.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Nothing is written once the Recorder is nil or closed.
//
//	rec.RecordCall("send_message", "Phone", true, 180*time.Millisecond)
func (r *Recorder) RecordCall(op, device string, ok bool, latency time.Duration) {
	if r == nil || r.closed.Load() {
		return
	}
	r.writer.WritePoint(newCallPoint(op, device, ok, latency, time.Now()))
}

// newCallPoint builds the point for one relay call.
func newCallPoint(op, device string, ok bool, latency time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		callMeasurement,
		map[string]string{
			"op":     op,
			"device": device,
		},
		map[string]any{
			"ok":         ok,
			"latency_ms": float64(latency) / float64(time.Millisecond),
		},
		at,
	)
}
