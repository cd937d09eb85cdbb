package user

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

type User struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the user may use the administrative endpoints.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
