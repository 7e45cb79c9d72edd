package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/autoremote/internal/infrastructure/config"
)

const (
	pingTimeout = 10 * time.Second

	defaultBatchSize    = 100
	defaultFlushSeconds = 10
)

// Recorder writes one point per relay call to InfluxDB v2.
//
// Points go through the client's non-blocking WriteAPI; they are batched,
// flushed on an interval, and flushed once more by Close.
type Recorder struct {
	client influxdb2.Client
	writer api.WriteAPI
	closed atomic.Bool
}

// NewRecorder connects to the server in cfg and checks it answers a ping.
//
// Returns ErrDisabled when cfg.Enabled is false and ErrUnreachable when
// the ping fails. onError, if non-nil, receives asynchronous write
// failures; it runs on a background goroutine.
func NewRecorder(ctx context.Context, cfg config.InfluxDBConfig, onError func(error)) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushSeconds := cfg.FlushInterval
	if flushSeconds <= 0 {
		flushSeconds = defaultFlushSeconds
	}

	// #nosec G115 -- both values are positive here
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(time.Duration(flushSeconds) * time.Second / time.Millisecond))
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ready, err := client.Ping(pingCtx)
	if err == nil && !ready {
		err = errors.New("server not ready")
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, cfg.URL, err)
	}

	r := &Recorder{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	go drainErrors(r.writer.Errors(), onError)
	return r, nil
}

// drainErrors forwards write failures until the client closes the channel.
func drainErrors(errs <-chan error, onError func(error)) {
	for err := range errs {
		if onError != nil {
			onError(err)
		}
	}
}

// Close flushes buffered points and releases the client. It is safe to
// call on a nil Recorder and more than once.
func (r *Recorder) Close() error {
	if r == nil || r.closed.Swap(true) {
		return nil
	}
	r.writer.Flush()
	r.client.Close()
	return nil
}
