package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/selflens/selflens/internal/service"
)

type SignalHandler struct {
	svc *service.SignalService
}

func NewSignalHandler(svc *service.SignalService) *SignalHandler {
	return &SignalHandler{svc: svc}
}

func (h *SignalHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req service.SignalInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sig, err := h.svc.Record(r.Context(), req)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record signal")
		return
	}

	writeJSON(w, http.StatusCreated, sig)
}

type recordBatchRequest struct {
	Signals []service.SignalInput `json:"signals"`
}

func (h *SignalHandler) RecordBatch(w http.ResponseWriter, r *http.Request) {
	var req recordBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Signals) == 0 {
		writeError(w, http.StatusBadRequest, "signals must not be empty")
		return
	}

	signals, err := h.svc.RecordBatch(r.Context(), req.Signals)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to record signal batch")
		return
	}

	writeJSON(w, http.StatusCreated, signals)
}

func (h *SignalHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	filter, err := service.ParseSignalFilter(q.Get("domain"), q.Get("type"), q.Get("since"), q.Get("until"), limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	signals, err := h.svc.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query signals")
		return
	}

	writeJSON(w, http.StatusOK, signals)
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidDomain) ||
		errors.Is(err, service.ErrInvalidSignalType) ||
		errors.Is(err, service.ErrInvalidTimestamp)
}
