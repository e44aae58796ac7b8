package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/selflens/selflens/internal/domain"
	"github.com/selflens/selflens/internal/store"
)

type FindingHandler struct {
	findings domain.FindingStore
}

func NewFindingHandler(findings domain.FindingStore) *FindingHandler {
	return &FindingHandler{findings: findings}
}

type upsertFindingRequest struct {
	Kind      string                 `json:"kind"`
	Subject   string                 `json:"subject"`
	Predicate string                 `json:"predicate"`
	Object    string                 `json:"object"`
	Window    domain.FindingWindow   `json:"window"`
	Stats     domain.FindingStats    `json:"stats"`
	Evidence  domain.FindingEvidence `json:"evidence"`
	Strength  float64                `json:"strength"`
}

// Upsert lets external workflows record findings directly — contradiction
// findings in particular, which the discovery engine never emits. The natural
// key decides whether this creates a row or refreshes one.
func (h *FindingHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertFindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.ValidFindingKind(req.Kind) {
		writeError(w, http.StatusBadRequest, "invalid kind")
		return
	}
	if req.Subject == "" || req.Predicate == "" || req.Object == "" {
		writeError(w, http.StatusBadRequest, "subject, predicate, and object are required")
		return
	}

	finding := &domain.Finding{
		Kind:      domain.FindingKind(req.Kind),
		Subject:   req.Subject,
		Predicate: req.Predicate,
		Object:    req.Object,
		Window:    req.Window,
		Stats:     req.Stats,
		Evidence:  domain.FindingEvidence{SignalIDs: domain.DedupEvidence(req.Evidence.SignalIDs)},
		Strength:  req.Strength,
	}
	if err := h.findings.Upsert(r.Context(), finding); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upsert finding")
		return
	}

	writeJSON(w, http.StatusOK, finding)
}

func (h *FindingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid finding id")
		return
	}

	finding, err := h.findings.GetFinding(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "finding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get finding")
		return
	}

	writeJSON(w, http.StatusOK, finding)
}

func (h *FindingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.FindingFilter

	if raw := q.Get("kind"); raw != "" {
		if !domain.ValidFindingKind(raw) {
			writeError(w, http.StatusBadRequest, "invalid kind")
			return
		}
		kind := domain.FindingKind(raw)
		filter.Kind = &kind
	}
	if raw := q.Get("subject"); raw != "" {
		subject := raw
		filter.Subject = &subject
	}
	if raw := q.Get("status"); raw != "" {
		if !domain.ValidFindingStatus(raw) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status := domain.FindingStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("min_strength"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_strength")
			return
		}
		filter.MinStrength = &v
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	findings, err := h.findings.GetFindings(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query findings")
		return
	}

	writeJSON(w, http.StatusOK, findings)
}
