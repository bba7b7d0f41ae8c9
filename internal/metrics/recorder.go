// Package metrics exposes counters and gauges describing the monitor loop.
package metrics

// Recorder receives observability events from the engine. NoopRecorder is
// used when metrics are not served.
type Recorder interface {
	ObserveSample(present bool, distanceCM float64)
	IncSensorError()
	IncTransition(present bool)
	IncNag(kind string)
	IncNotifyFailure()
	IncPersistFailure()
}

// NoopRecorder does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveSample(bool, float64) {}
func (NoopRecorder) IncSensorError()             {}
func (NoopRecorder) IncTransition(bool)          {}
func (NoopRecorder) IncNag(string)               {}
func (NoopRecorder) IncNotifyFailure()           {}
func (NoopRecorder) IncPersistFailure()          {}
