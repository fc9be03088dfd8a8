package validation

import (
	"strings"
	"time"
)

const (
	MsgDescripcion    = "La descripción es obligatoria"
	MsgVehiculo       = "Debes seleccionar un vehículo"
	MsgFechas         = "Debes seleccionar la fecha de inicio y fin de la reserva"
	MsgInicioPasado   = "La fecha de inicio no puede ser anterior a hoy"
	MsgFinAntesInicio = "La fecha de fin no puede ser anterior a la fecha de inicio"
)

// ReservationForm is what a client fills in to book a vehicle.
type ReservationForm struct {
	Descripcion string `json:"descripcion" form:"descripcion"`
	Vehiculo    string `json:"vehiculo" form:"vehiculo"`
	FechaInicio string `json:"fecha_inicio" form:"fecha_inicio"`
	FechaFin    string `json:"fecha_fin" form:"fecha_fin"`
}

// ValidateReservation checks a new booking. Dates compare by calendar day in
// now's location, so booking for today is allowed.
func ValidateReservation(f ReservationForm, now time.Time) string {
	if strings.TrimSpace(f.Descripcion) == "" {
		return MsgDescripcion
	}
	if strings.TrimSpace(f.Vehiculo) == "" {
		return MsgVehiculo
	}
	start, okStart := ParseDate(f.FechaInicio)
	end, okEnd := ParseDate(f.FechaFin)
	if !okStart || !okEnd {
		return MsgFechas
	}
	startDay := day(start, now.Location())
	if startDay.Before(day(now, now.Location())) {
		return MsgInicioPasado
	}
	if day(end, now.Location()).Before(startDay) {
		return MsgFinAntesInicio
	}
	return ""
}

// ValidateDateRange only checks ordering. Either bound may be empty.
func ValidateDateRange(from, to string) string {
	if from == "" || to == "" {
		return ""
	}
	start, okStart := ParseDate(from)
	end, okEnd := ParseDate(to)
	if !okStart || !okEnd {
		return MsgFechas
	}
	if day(end, time.UTC).Before(day(start, time.UTC)) {
		return MsgFinAntesInicio
	}
	return ""
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
