package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/selflens/selflens/internal/domain"
	"github.com/selflens/selflens/internal/service"
)

type InsightHandler struct {
	svc *service.InsightService
}

func NewInsightHandler(svc *service.InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

func (h *InsightHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req domain.InsightQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.AnswerWithCitations(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (h *InsightHandler) Quick(w http.ResponseWriter, r *http.Request) {
	insights, err := h.svc.GetQuickInsights(r.Context(), r.URL.Query().Get("subject"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute quick insights")
		return
	}

	writeJSON(w, http.StatusOK, insights)
}
