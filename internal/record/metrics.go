package record

import (
	"errors"

	"github.com/garnizeh/staffdir/pkg/apperror"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK       = "ok"
	resultNoop     = "noop"
	resultInvalid  = "invalid"
	resultNotFound = "not_found"
	resultStorage  = "storage_error"
	resultError    = "error"
)

// Metrics counts record store operations by outcome. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics registers the counters with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffdir",
			Subsystem: "record",
			Name:      "operations_total",
			Help:      "Record store mutations by operation and result.",
		}, []string{"op", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.ops)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	m.observeResult(op, resultOf(err))
}

func (m *Metrics) observeResult(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, apperror.ErrValidation):
		return resultInvalid
	case errors.Is(err, apperror.ErrNotFound):
		return resultNotFound
	case errors.Is(err, apperror.ErrStorageIO):
		return resultStorage
	default:
		return resultError
	}
}
