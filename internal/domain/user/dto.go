package user

import (
	"strings"

	"github.com/leaveapproval/attendance-client-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize lowercases and trims the email to match backend behavior.
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is not a valid address",
		})
	}

	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        Role   `json:"role"`
}

// User builds the session user from a login response. Department and
// designation are not part of the sign-in payload.
func (r LoginResponse) User() User {
	return User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Role:      r.Role,
	}
}

type CreateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	Role        Role   `json:"role"`
}

func (r *CreateUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FirstName) {
		errs = append(errs, validator.ValidationError{
			Field:   "firstName",
			Message: "firstName is required",
		})
	}

	if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is not a valid address",
		})
	}

	if len(r.Password) < 6 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 6 characters",
		})
	}

	if r.Role != RoleAdmin && r.Role != RoleEmployee {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must be ADMIN or EMPLOYEE",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// LeaveStats mirrors the per-employee usage summary the admin panel
// renders next to each user.
type LeaveStats struct {
	TotalLeaves      int `json:"totalLeaves"`
	TotalLeaveDays   int `json:"totalLeaveDays"`
	MonthlyLeaves    int `json:"monthlyLeaves"`
	MonthlyLeaveDays int `json:"monthlyLeaveDays"`
}
