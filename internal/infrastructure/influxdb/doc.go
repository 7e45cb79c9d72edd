// Package influxdb records AutoRemote relay call metrics in InfluxDB v2.
//
// Each relay request made by the service produces one point:
//
//	autoremote_calls,device=Phone,op=send_message latency_ms=182.4,ok=true
//
// Recording is optional and disabled by default; NewRecorder reports
// ErrDisabled in that case so callers can carry on without metrics.
//
// # Usage
//
//	rec, err := influxdb.NewRecorder(ctx, config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "...",
//	    Org:     "home",
//	    Bucket:  "autoremote",
//	}, func(err error) { log.Warn("influxdb write failed", "error", err) })
//	if err != nil {
//	    return err
//	}
//	defer rec.Close()
//
//	svc := autoremote.New(registry, relay, env, autoremote.WithRecorder(rec))
package influxdb
