package student

// Role distinguishes the two account kinds.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is a demo-grade login record. Teacher accounts have no StudentID.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Password  string  `json:"password,omitempty"`
	Role      Role    `json:"role"`
	StudentID *string `json:"student_id"`
}

// SafeView is the user payload returned by the API, without the password.
type SafeView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Role      Role    `json:"role"`
	StudentID *string `json:"student_id"`
}

// Safe strips credentials for responses.
func (u *User) Safe() SafeView {
	return SafeView{ID: u.ID, Email: u.Email, Role: u.Role, StudentID: u.StudentID}
}
