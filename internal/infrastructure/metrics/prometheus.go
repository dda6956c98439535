// Package metrics contadores Prometheus del motor de inventario.
package metrics

import (
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/prometheus/client_golang/prometheus"
)

var _ ports.Metrics = (*Metrics)(nil)

// Metrics implementa ports.Metrics con contadores Prometheus.
type Metrics struct {
	movementsPosted         *prometheus.CounterVec
	movementsRejected       *prometheus.CounterVec
	dispatchesRecorded      *prometheus.CounterVec
	dispatchTransferFailed  prometheus.Counter
	dispatchTransferRetried prometheus.Counter
}

// New crea y registra los contadores en reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movementsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bodegas",
			Name:      "movements_posted_total",
			Help:      "Movimientos contabilizados por tipo.",
		}, []string{"type"}),
		movementsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bodegas",
			Name:      "movements_rejected_total",
			Help:      "Movimientos rechazados por motivo.",
		}, []string{"reason"}),
		dispatchesRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bodegas",
			Name:      "dispatches_recorded_total",
			Help:      "Despachos registrados por estado resultante de la requisición.",
		}, []string{"state"}),
		dispatchTransferFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bodegas",
			Name:      "dispatch_transfer_failed_total",
			Help:      "Despachos registrados cuya transferencia falló.",
		}),
		dispatchTransferRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bodegas",
			Name:      "dispatch_transfer_reconciled_total",
			Help:      "Transferencias de despacho registradas por conciliación.",
		}),
	}
	reg.MustRegister(
		m.movementsPosted,
		m.movementsRejected,
		m.dispatchesRecorded,
		m.dispatchTransferFailed,
		m.dispatchTransferRetried,
	)
	return m
}

func (m *Metrics) MovementPosted(movementType string) {
	m.movementsPosted.WithLabelValues(movementType).Inc()
}

func (m *Metrics) MovementRejected(reason string) {
	m.movementsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) DispatchRecorded(state string) {
	m.dispatchesRecorded.WithLabelValues(state).Inc()
}

func (m *Metrics) DispatchTransferFailed() {
	m.dispatchTransferFailed.Inc()
}

func (m *Metrics) TransferReconciled() {
	m.dispatchTransferRetried.Inc()
}
