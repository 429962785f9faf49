package api

import (
	"net/http"

	"github.com/learnloop/backend/internal/domain/curriculum"
	"github.com/learnloop/backend/internal/domain/student"
)

// ── Request types ───────────────────────────────────────────────────────────

// UpdateStateRequest carries a partial profile update. Only fields present in
// the body are applied; mastery state is never writable from the outside.
type UpdateStateRequest struct {
	Name                *string `json:"name,omitempty"`
	Email               *string `json:"email,omitempty"`
	GradeLevel          *string `json:"grade_level,omitempty"`
	PreferredDifficulty *string `json:"preferred_difficulty,omitempty"`
	LastUnitID          *string `json:"last_unit_id,omitempty"`
	LastSectionID       *string `json:"last_section_id,omitempty"`
	AvatarURL           *string `json:"avatar_url,omitempty"`
	AvatarName          *string `json:"avatar_name,omitempty"`
}

type CreateStudentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type NextQuestionRequest struct {
	StudentID string `json:"student_id"`
	UnitID    string `json:"unit_id"`
	SectionID string `json:"section_id,omitempty"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /api/students
func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if h.handleStoreError(w, err, "students") {
		return
	}
	if profiles == nil {
		profiles = []*student.Profile{}
	}
	respondJSON(w, http.StatusOK, profiles)
}

// POST /api/students
func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.learning.CreateStudent(r.Context(), req.Name, req.Email)
	if h.handleStoreError(w, err, "student") {
		return
	}
	respondJSON(w, http.StatusCreated, profile)
}

// GET /api/student/{studentID}/state
func (h *Handler) getStudentState(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	profile, err := h.learning.GetOrCreateProfile(r.Context(), studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// POST /api/student/{studentID}/state
func (h *Handler) updateStudentState(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	var req UpdateStateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.learning.GetOrCreateProfile(r.Context(), studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}

	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.Email != nil {
		profile.Email = req.Email
	}
	if req.GradeLevel != nil {
		profile.GradeLevel = *req.GradeLevel
	}
	if req.PreferredDifficulty != nil {
		switch d := curriculum.Difficulty(*req.PreferredDifficulty); d {
		case curriculum.DifficultyEasy, curriculum.DifficultyMedium, curriculum.DifficultyHard:
			profile.PreferredDifficulty = d
		default:
			http.Error(w, "invalid preferred_difficulty", http.StatusBadRequest)
			return
		}
	}
	if req.LastUnitID != nil {
		profile.LastUnitID = req.LastUnitID
	}
	if req.LastSectionID != nil {
		profile.LastSectionID = req.LastSectionID
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if req.AvatarName != nil {
		profile.AvatarName = req.AvatarName
	}

	if err := h.learning.UpdateProfile(r.Context(), profile); h.handleStoreError(w, err, "student") {
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GET /api/student/{studentID}/next-activity
func (h *Handler) nextActivity(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	next, err := h.learning.NextActivity(r.Context(), studentID)
	if h.handleStoreError(w, err, "next activity") {
		return
	}
	respondJSON(w, http.StatusOK, next)
}

// POST /api/next-question
func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	var req NextQuestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StudentID == "" || req.UnitID == "" {
		http.Error(w, "student_id and unit_id are required", http.StatusBadRequest)
		return
	}

	q, err := h.learning.NextQuestion(r.Context(), req.StudentID, req.UnitID, req.SectionID)
	if h.handleStoreError(w, err, "question") {
		return
	}
	respondJSON(w, http.StatusOK, q)
}
