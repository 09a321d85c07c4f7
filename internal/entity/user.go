package entity

type UserRelation string

const (
	UserRole UserRelation = "role"
)

type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	RoleID *string `json:"role_id,omitempty"`
	Active bool    `json:"active"`
	Timestamps

	Role *Role `json:"role,omitempty"`
}

type RoleRelation string

const (
	RoleUsers RoleRelation = "users"
)

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Timestamps

	Users []User `json:"users,omitempty"`
}
