package domain

import "strings"

// Role is the backend's wire value for a console user's role.
type Role string

const (
	RoleClient     Role = "cliente"
	RoleTechnician Role = "tecnico"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated user as the backend describes it.
type Identity struct {
	ID              string `json:"_id"`
	Role            Role   `json:"rol"`
	Email           string `json:"email,omitempty"`
	Nombre          string `json:"nombre,omitempty"`
	Apellido        string `json:"apellido,omitempty"`
	Cedula          string `json:"cedula,omitempty"`
	Telefono        string `json:"telefono,omitempty"`
	Ciudad          string `json:"ciudad,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Dependencia     string `json:"dependencia,omitempty"`
	Genero          string `json:"genero,omitempty"`
}

// DisplayName joins nombre and apellido, skipping empty parts.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join([]string{i.Nombre, i.Apellido}, " "))
}

// Welcome is the greeting shown on every dashboard landing.
func (i *Identity) Welcome() string {
	if name := i.DisplayName(); name != "" {
		return "Bienvenido, " + name
	}
	return "Bienvenido"
}

// Session pairs the identity with the bearer token the backend issued.
// The zero value is the unauthenticated session.
type Session struct {
	Identity *Identity `json:"user,omitempty"`
	Token    string    `json:"token,omitempty"`
}

// Authenticated reports whether both halves of the session are present.
func (s Session) Authenticated() bool {
	return s.Identity != nil && s.Token != ""
}
