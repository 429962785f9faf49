package api

import (
	"errors"
	"net/http"

	"github.com/learnloop/backend/internal/domain/attempt"
	"github.com/learnloop/backend/internal/domain/curriculum"
)

// ── Request types ───────────────────────────────────────────────────────────

type SubmitAttemptRequest struct {
	StudentID string                   `json:"student_id"`
	QuizID    string                   `json:"quiz_id"`
	QuizType  string                   `json:"quiz_type"`
	UnitID    string                   `json:"unit_id"`
	SectionID *string                  `json:"section_id,omitempty"`
	ScorePct  float64                  `json:"score_pct"`
	Results   []attempt.QuestionResult `json:"results"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /api/attempts
func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req SubmitAttemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := attempt.New(req.StudentID, req.QuizID, curriculum.QuizType(req.QuizType), req.UnitID, req.SectionID, req.ScorePct, req.Results)
	if err != nil {
		if errors.Is(err, attempt.ErrInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("attempt build failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	result, err := h.learning.SubmitAttempt(r.Context(), a)
	if h.handleStoreError(w, err, "attempt") {
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// GET /api/attempts/{studentID}
func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	attempts, err := h.store.GetAttempts(r.Context(), studentID)
	if h.handleStoreError(w, err, "attempts") {
		return
	}
	if attempts == nil {
		attempts = []attempt.Attempt{}
	}
	respondJSON(w, http.StatusOK, attempts)
}

// GET /api/student/{studentID}/diagnostic-results/{unitID}
func (h *Handler) diagnosticResults(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")
	unitID := r.PathValue("unitID")

	result, err := h.learning.DiagnosticResults(r.Context(), studentID, unitID)
	if h.handleStoreError(w, err, "diagnostic results") {
		return
	}
	respondJSON(w, http.StatusOK, result)
}
