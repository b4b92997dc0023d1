package endpoint

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request instruments shared by all endpoints.
type Metrics struct {
	requests metrics.Counter
	latency  metrics.Histogram
}

// NewMetrics creates the request instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "viewcounter",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Number of requests received.",
	}, []string{"method", "success"})
	latency := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "viewcounter",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds.",
	}, []string{"method", "success"})

	for _, c := range []prometheus.Collector{requests, latency} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "unable to register metric")
		}
	}
	return &Metrics{
		requests: kitprometheus.NewCounter(requests),
		latency:  kitprometheus.NewSummary(latency),
	}, nil
}

// InstrumentingMiddleware records the count and latency of calls to the
// wrapped endpoint under the given method label.
func InstrumentingMiddleware(method string, m *Metrics) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				success := err == nil
				if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
					success = false
				}
				lvs := []string{"method", method, "success", strconv.FormatBool(success)}
				m.requests.With(lvs...).Add(1)
				m.latency.With(lvs...).Observe(time.Since(begin).Seconds())
			}(time.Now())
			return next(ctx, request)
		}
	}
}
