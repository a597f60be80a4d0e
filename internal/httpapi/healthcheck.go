package httpapi

import (
	"log/slog"
	"net/http"
)

type healthcheckerImpl struct {
	pinger StorePinger
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		slog.Error("failed to check store connectivity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check store connectivity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func registerHealthcheck(mux *http.ServeMux, pinger StorePinger) {
	h := &healthcheckerImpl{pinger: pinger}
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}
