package auth

// Role define los roles que entiende el core de matching/adopciones.
// @Enum adopter, shelter, admin
type Role string

const (
	RoleAdopter Role = "adopter"
	RoleShelter Role = "shelter"
	RoleAdmin   Role = "admin"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin es un helper para los handlers de settings/admin.
func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

// CanManageRequests indica si el actor puede transicionar solicitudes
// (el adopter solo cancela las suyas; eso lo valida el service).
func (c Claims) CanManageRequests() bool {
	return c.Role == RoleShelter || c.Role == RoleAdmin
}
