package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readremind"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	samples         *prom.CounterVec
	sensorErrors    prom.Counter
	transitions     *prom.CounterVec
	nags            *prom.CounterVec
	notifyFailures  prom.Counter
	persistFailures prom.Counter
	present         prom.Gauge
	distance        prom.Gauge
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	pr := &PrometheusRecorder{
		samples: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Sensor samples taken, by inferred presence",
		}, []string{"present"}),
		sensorErrors: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_errors_total",
			Help:      "Failed sensor reads",
		}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Presence transitions, by direction",
		}, []string{"direction"}),
		nags: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "nags_total",
			Help:      "Nag notifications sent, by kind",
		}, []string{"kind"}),
		notifyFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Notifications that failed or timed out",
		}),
		persistFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "State writes that failed",
		}),
		present: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "book_present",
			Help:      "1 when the last sample saw the book",
		}),
		distance: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "distance_centimeters",
			Help:      "Last distance reading",
		}),
	}
	reg.MustRegister(pr.samples, pr.sensorErrors, pr.transitions, pr.nags,
		pr.notifyFailures, pr.persistFailures, pr.present, pr.distance)
	return pr
}

func (p *PrometheusRecorder) ObserveSample(present bool, distanceCM float64) {
	p.samples.WithLabelValues(boolLabel(present)).Inc()
	p.distance.Set(distanceCM)
	if present {
		p.present.Set(1)
	} else {
		p.present.Set(0)
	}
}

func (p *PrometheusRecorder) IncSensorError() { p.sensorErrors.Inc() }

func (p *PrometheusRecorder) IncTransition(present bool) {
	direction := "picked_up"
	if present {
		direction = "set_down"
	}
	p.transitions.WithLabelValues(direction).Inc()
}

func (p *PrometheusRecorder) IncNag(kind string) { p.nags.WithLabelValues(kind).Inc() }
func (p *PrometheusRecorder) IncNotifyFailure()  { p.notifyFailures.Inc() }
func (p *PrometheusRecorder) IncPersistFailure() { p.persistFailures.Inc() }

// HTTPHandler serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
