package entity

// Role is the workflow role a user holds in the directory
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
	RoleDUHead   Role = "du_head"
)

// IsValid returns true for the four directory roles
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin, RoleDUHead:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// User is a directory entry. The workflow core only reads users.
type User struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name" validate:"required"`
	Role           Role    `json:"role" validate:"required,oneof=employee manager admin du_head"`
	Department     string  `json:"department"`
	Email          string  `json:"email" validate:"required,email"`
	HierarchyChain []int64 `json:"hierarchy_chain"`
	Avatar         string  `json:"avatar,omitempty"`
}

// Validate checks the directory fields of a user before it is stored
func (u *User) Validate() error {
	return validateStruct(u)
}
