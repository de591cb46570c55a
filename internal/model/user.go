package model

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	PhoneNo string `json:"phone_no"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

// Principal is the already authenticated caller of an operation.
type Principal struct {
	ID   int64
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
