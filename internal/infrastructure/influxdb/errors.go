package influxdb

import "errors"

var (
	// ErrDisabled is returned by NewRecorder when call metrics are switched
	// off in the configuration. Callers treat it as "run without metrics".
	ErrDisabled = errors.New("influxdb: call metrics disabled")

	// ErrUnreachable is returned by NewRecorder when the server does not
	// answer its readiness ping.
	ErrUnreachable = errors.New("influxdb: server unreachable")
)
