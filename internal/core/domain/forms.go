package domain

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Registration is the body of POST /auth/register and POST /clients/register.
type Registration struct {
	Cedula          string `json:"cedula" form:"cedula" validate:"required"`
	Nombre          string `json:"nombre" form:"nombre" validate:"required"`
	Apellido        string `json:"apellido" form:"apellido" validate:"required"`
	Ciudad          string `json:"ciudad" form:"ciudad" validate:"required"`
	Direccion       string `json:"direccion" form:"direccion" validate:"required"`
	Telefono        string `json:"telefono" form:"telefono" validate:"required"`
	FechaNacimiento string `json:"fecha_nacimiento" form:"fecha_nacimiento" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
	Dependencia     string `json:"dependencia,omitempty" form:"dependencia"`
	Rol             Role   `json:"rol"`
}

// TechnicianRegistration is the body of POST /technicians/register. The
// backend reads the role from either key, so both are sent.
type TechnicianRegistration struct {
	Email           string `json:"email" form:"email" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
	Cedula          string `json:"cedula" form:"cedula" validate:"required"`
	Nombre          string `json:"nombre" form:"nombre" validate:"required"`
	Apellido        string `json:"apellido" form:"apellido" validate:"required"`
	FechaNacimiento string `json:"fecha_nacimiento" form:"fecha_nacimiento"`
	Genero          string `json:"genero" form:"genero"`
	Direccion       string `json:"direccion" form:"direccion"`
	Telefono        string `json:"telefono" form:"telefono" validate:"required"`
	Rol             Role   `json:"rol" form:"rol"`
	Role            Role   `json:"role"`
}

// NewReservation is the body of POST /reserva.
type NewReservation struct {
	Descripcion string `json:"descripcion"`
	Cliente     string `json:"cliente"`
	Vehiculo    string `json:"vehiculo"`
	FechaInicio string `json:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin"`
}
