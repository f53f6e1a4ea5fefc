package models

// User roles. The super role passes every role gate.
const (
	RolePM    = "pm"
	RoleSuper = "super"
	RoleSales = "sales"
)

func IsValidRole(role string) bool {
	return role == RolePM || role == RoleSuper || role == RoleSales
}

/*
|--------------------------------------------------------------------------
| STORAGE MODEL (INTERNAL)
|--------------------------------------------------------------------------
| Mirrors the user:{username} hash. Passwords are stored and compared as
| plaintext; a known weakness kept because the seeded defaults are part of
| the observable contract.
*/
type User struct {
	Username string
	Password string
	Role     string
}

/*
|--------------------------------------------------------------------------
| RESPONSE DTO
|--------------------------------------------------------------------------
| Never carries the password.
*/
type UserInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpsertUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type PatchUserRequest struct {
	Password *string `json:"password"`
	Role     *string `json:"role"`
}
