package api

import (
	"net/http"

	"github.com/learnloop/backend/internal/domain/curriculum"
)

// ── Response types ──────────────────────────────────────────────────────────

type QuizResponse struct {
	curriculum.Quiz
	Questions []curriculum.Question `json:"questions"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /api/units
func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	content, err := h.store.GetContent(r.Context())
	if h.handleStoreError(w, err, "content") {
		return
	}
	if content.Units == nil {
		content.Units = []curriculum.Unit{}
	}
	respondJSON(w, http.StatusOK, content.Units)
}

// GET /api/units/{unitID}
func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request) {
	unitID := r.PathValue("unitID")

	content, err := h.store.GetContent(r.Context())
	if h.handleStoreError(w, err, "content") {
		return
	}

	unit := content.Unit(unitID)
	if unit == nil {
		http.Error(w, "unit not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, unit)
}

// GET /api/quizzes/{quizID}
//
// The quiz comes back with its questions embedded, in authored order, so the
// frontend renders without a second round trip.
func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("quizID")

	content, err := h.store.GetContent(r.Context())
	if h.handleStoreError(w, err, "content") {
		return
	}

	quiz := content.Quiz(quizID)
	if quiz == nil {
		http.Error(w, "quiz not found", http.StatusNotFound)
		return
	}

	questions := make([]curriculum.Question, 0, len(quiz.QuestionIDs))
	for _, qid := range quiz.QuestionIDs {
		if q := content.Question(qid); q != nil {
			questions = append(questions, *q)
		}
	}

	respondJSON(w, http.StatusOK, QuizResponse{Quiz: *quiz, Questions: questions})
}
