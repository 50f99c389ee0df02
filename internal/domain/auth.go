package domain

// Role enumerates principals recognized on the API. Tokens are issued by the
// external identity provider; this service only verifies them.
type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
	RoleService  Role = "service"
)
