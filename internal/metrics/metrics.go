// Package metrics exposes the consumer's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Consumed   prometheus.Counter
	Acked      prometheus.Counter
	Discarded  prometheus.Counter
	Requeued   prometheus.Counter
	Reconnects prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Consumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "weathersink_messages_consumed_total",
			Help: "Messages delivered to the consumer.",
		}),
		Acked: factory.NewCounter(prometheus.CounterOpts{
			Name: "weathersink_messages_acked_total",
			Help: "Messages persisted and acknowledged.",
		}),
		Discarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "weathersink_messages_discarded_total",
			Help: "Poison messages rejected without requeue.",
		}),
		Requeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "weathersink_messages_requeued_total",
			Help: "Messages returned to the queue after a store failure.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "weathersink_store_reconnects_total",
			Help: "Store reconnection cycles triggered by operational errors.",
		}),
	}
}
