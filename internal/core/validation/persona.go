// Package validation holds the console's client-side form checks. Every
// function is pure and reports the first failing rule as a user-facing
// message; an empty string means the input is acceptable.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	lettersRe = regexp.MustCompile(`^[\p{L}\s]+$`)
	cedulaRe  = regexp.MustCompile(`^\d{10}$`)
	phoneRe   = regexp.MustCompile(`^09\d{8}$`)
	emailRe   = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

const (
	MsgNombre     = "El nombre solo puede contener letras y espacios"
	MsgApellido   = "El apellido solo puede contener letras y espacios"
	MsgCedula     = "La cédula debe tener exactamente 10 dígitos"
	MsgTelefono   = "El teléfono debe tener 10 dígitos y empezar por 09"
	MsgNacimiento = "La fecha de nacimiento no es válida (debe tener entre 10 y 100 años)"
	MsgEmail      = "El email no es válido"
	MsgPassword   = "La contraseña debe tener al menos 6 caracteres"
	MsgConfirm    = "Las contraseñas no coinciden"
)

const (
	minAge         = 10
	maxAge         = 100
	minPasswordLen = 6
)

// Persona is the set of person fields shared by clients, technicians and
// profiles.
type Persona struct {
	Nombre          string
	Apellido        string
	Cedula          string
	Telefono        string
	FechaNacimiento string
	Email           string
}

// Registration adds the credential fields checked when creating an account.
type Registration struct {
	Persona
	Password string
	// Confirm is only compared when the form has a confirmation field.
	Confirm *string
}

// ValidatePersona checks p in a fixed order and returns the first failure.
func ValidatePersona(p Persona, now time.Time) string {
	if !lettersRe.MatchString(p.Nombre) {
		return MsgNombre
	}
	if !lettersRe.MatchString(p.Apellido) {
		return MsgApellido
	}
	if !cedulaRe.MatchString(p.Cedula) {
		return MsgCedula
	}
	if !phoneRe.MatchString(p.Telefono) {
		return MsgTelefono
	}
	if p.FechaNacimiento != "" && !plausibleBirthDate(p.FechaNacimiento, now) {
		return MsgNacimiento
	}
	if p.Email != "" && !emailRe.MatchString(p.Email) {
		return MsgEmail
	}
	return ""
}

// ValidatePersonaChanges applies the same rules as ValidatePersona to the
// fields that are set, for edit forms where empty means unchanged.
func ValidatePersonaChanges(p Persona, now time.Time) string {
	if p.Nombre != "" && !lettersRe.MatchString(p.Nombre) {
		return MsgNombre
	}
	if p.Apellido != "" && !lettersRe.MatchString(p.Apellido) {
		return MsgApellido
	}
	if p.Cedula != "" && !cedulaRe.MatchString(p.Cedula) {
		return MsgCedula
	}
	if p.Telefono != "" && !phoneRe.MatchString(p.Telefono) {
		return MsgTelefono
	}
	if p.FechaNacimiento != "" && !plausibleBirthDate(p.FechaNacimiento, now) {
		return MsgNacimiento
	}
	if p.Email != "" && !emailRe.MatchString(p.Email) {
		return MsgEmail
	}
	return ""
}

// ValidateRegistration runs ValidatePersona and then the password rules.
func ValidateRegistration(r Registration, now time.Time) string {
	if msg := ValidatePersona(r.Persona, now); msg != "" {
		return msg
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLen {
		return MsgPassword
	}
	if r.Confirm != nil && *r.Confirm != r.Password {
		return MsgConfirm
	}
	return ""
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// plausibleBirthDate compares calendar years only, so someone born late in
// the year counts as a year older than they are.
func plausibleBirthDate(s string, now time.Time) bool {
	born, ok := ParseDate(s)
	if !ok {
		return false
	}
	age := now.Year() - born.Year()
	return age >= minAge && age <= maxAge
}

// ParseDate accepts the date-input format and the backend's ISO timestamps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var fieldByMessage = map[string]string{
	MsgNombre:     "nombre",
	MsgApellido:   "apellido",
	MsgCedula:     "cedula",
	MsgTelefono:   "telefono",
	MsgNacimiento: "fecha_nacimiento",
	MsgEmail:      "email",
	MsgPassword:   "password",
	MsgConfirm:    "confirm_password",
}

// FieldOf names the form field a persona message belongs to, or "general".
func FieldOf(msg string) string {
	if f, ok := fieldByMessage[msg]; ok {
		return f
	}
	return "general"
}
