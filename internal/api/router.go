package api

import "net/http"

// RegisterRoutes wires every API route onto the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Content
	mux.HandleFunc("GET /api/units", h.listUnits)
	mux.HandleFunc("GET /api/units/{unitID}", h.getUnit)
	mux.HandleFunc("GET /api/quizzes/{quizID}", h.getQuiz)

	// Students
	mux.HandleFunc("GET /api/students", h.listStudents)
	mux.HandleFunc("POST /api/students", h.createStudent)
	mux.HandleFunc("GET /api/student/{studentID}/state", h.getStudentState)
	mux.HandleFunc("POST /api/student/{studentID}/state", h.updateStudentState)
	mux.HandleFunc("GET /api/student/{studentID}/next-activity", h.nextActivity)
	mux.HandleFunc("POST /api/next-question", h.nextQuestion)

	// Attempts
	mux.HandleFunc("POST /api/attempts", h.submitAttempt)
	mux.HandleFunc("GET /api/attempts/{studentID}", h.listAttempts)
	mux.HandleFunc("GET /api/student/{studentID}/diagnostic-results/{unitID}", h.diagnosticResults)

	// Auth
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/forgot-password", h.forgotPassword)

	// Teacher dashboard
	mux.HandleFunc("GET /api/teacher/overview", h.teacherOverview)
	mux.HandleFunc("GET /api/teacher/students/{studentID}", h.teacherStudentDetail)
}
