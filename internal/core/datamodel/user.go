package datamodel

import (
	"strings"
	"time"
)

type User struct {
	ID        ID
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      Role
	ManagerID ID
	CreatedAt time.Time
}

// DisplayName is the name dashboards show: full name when present,
// username otherwise.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type UserDTO struct {
	ID        ID        `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Manager   ID        `json:"manager"`
	CreatedAt Timestamp `json:"created_at"`
}

func (d UserDTO) ToUser() User {
	return User{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Phone:     d.Phone,
		Role:      Role(d.Role),
		ManagerID: d.Manager,
		CreatedAt: d.CreatedAt.Time,
	}
}
