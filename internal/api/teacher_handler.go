package api

import "net/http"

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /api/teacher/overview
func (h *Handler) teacherOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reports.Overview(r.Context())
	if h.handleStoreError(w, err, "overview") {
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// GET /api/teacher/students/{studentID}
func (h *Handler) teacherStudentDetail(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	detail, err := h.reports.StudentDetail(r.Context(), studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
