package session

import (
	"strings"

	"github.com/ardiansyahn/crm-backoffice/internal/core/datamodel"
)

// ValidationError represents a simple validation error from input validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

type LoginInput struct {
	Email    string
	Password string
}

func (i LoginInput) Validate() error {
	if i.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if i.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

func (i SignupInput) Validate() error {
	if i.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if i.Email == "" || !strings.Contains(i.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if i.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	Role      datamodel.Role
	ManagerID datamodel.ID
}

func (i CreateUserInput) Validate() error {
	if i.Name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if i.Email == "" || !strings.Contains(i.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if i.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	if !i.Role.Valid() {
		return ValidationError{Msg: "role must be admin, manager or employee"}
	}
	return nil
}

// splitName turns a display name into the backend's first/last pair.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// registerRequest is the wire shape for /auth/register/.
type registerRequest struct {
	Username        string `json:"username,omitempty"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	Role            string `json:"role,omitempty"`
	Manager         string `json:"manager,omitempty"`
}

// authResponse is the wire shape of login/register responses.
type authResponse struct {
	User    datamodel.UserDTO `json:"user"`
	Access  string            `json:"access"`
	Refresh string            `json:"refresh"`
}
