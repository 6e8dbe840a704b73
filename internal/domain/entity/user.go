package entity

// Role rol del usuario autenticado que ejecuta un comando. Llega ya verificado desde el token.
type Role string

// Roles válidos.
const (
	RoleAdmin              Role = "admin"
	RoleGestor             Role = "gestor"
	RoleSucessoCliente     Role = "sucesso_cliente"
	RoleAdsManager         Role = "ads_manager"
	RoleConsultorComercial Role = "consultor_comercial"
)

// Valid informa si el rol pertenece al conjunto cerrado.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGestor, RoleSucessoCliente, RoleAdsManager, RoleConsultorComercial:
		return true
	}
	return false
}

// Caller identidad y rol de quien invoca un comando del motor.
type Caller struct {
	UserID string
	Role   Role
}

// CanManageActionPlans roles autorizados a crear planes de acción.
func (c Caller) CanManageActionPlans() bool {
	switch c.Role {
	case RoleAdmin, RoleGestor, RoleSucessoCliente:
		return true
	}
	return false
}
