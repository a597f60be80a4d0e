package httpapi

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StorePinger reports connectivity of the store currently owned by the
// consumer.
type StorePinger interface {
	Ping(ctx context.Context) error
}

func NewMux(pinger StorePinger, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, pinger)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}
