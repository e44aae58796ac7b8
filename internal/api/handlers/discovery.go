package handlers

import (
	"net/http"

	"github.com/selflens/selflens/internal/service"
)

type DiscoveryHandler struct {
	svc *service.DiscoveryService
}

func NewDiscoveryHandler(svc *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc}
}

// Run triggers one discovery pass synchronously. Intended for external
// schedulers; concurrent invocations are serialized by the service.
func (h *DiscoveryHandler) Run(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.RunCorrelationDiscovery(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "discovery run failed")
		return
	}

	writeJSON(w, http.StatusOK, results)
}
