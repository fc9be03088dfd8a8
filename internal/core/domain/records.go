package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is any entity the backend identifies by _id. Pointers to records
// also implement SetRecordID.
type Record interface {
	RecordID() string
}

// Ref points at another record. The backend sends either the bare id or the
// populated document, so both shapes decode into a Ref.
type Ref struct {
	ID       string `json:"_id"`
	Nombre   string `json:"nombre,omitempty"`
	Apellido string `json:"apellido,omitempty"`
	Email    string `json:"email,omitempty"`
	Marca    string `json:"marca,omitempty"`
	Modelo   string `json:"modelo,omitempty"`
	Placa    string `json:"placa,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// Year is a vehicle model year. Forms send it as text, so a quoted number
// and an empty string decode too; it always encodes as a number.
type Year int

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*y = 0
			return nil
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("anio %q is not a year", text)
	}
	*y = Year(n)
	return nil
}

// Vehicle is a rentable car.
type Vehicle struct {
	ID     string `json:"_id,omitempty"`
	Marca  string `json:"marca" validate:"required"`
	Modelo string `json:"modelo" validate:"required"`
	Placa  string `json:"placa" validate:"required"`
	Color  string `json:"color,omitempty"`
	Anio   Year   `json:"anio,omitempty"`
}

func (v Vehicle) RecordID() string { return v.ID }

func (v *Vehicle) SetRecordID(id string) { v.ID = id }

// Client is a registered customer as the admin screens see it.
type Client struct {
	ID              string `json:"_id,omitempty"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Cedula          string `json:"cedula"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Ciudad          string `json:"ciudad,omitempty"`
	Direccion       string `json:"direccion,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Dependencia     string `json:"dependencia,omitempty"`
}

func (c Client) RecordID() string { return c.ID }

func (c *Client) SetRecordID(id string) { c.ID = id }

// Technician is a support-staff account. Aprobado is false until an admin
// approves it.
type Technician struct {
	ID              string `json:"_id,omitempty"`
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	Cedula          string `json:"cedula"`
	Email           string `json:"email"`
	Telefono        string `json:"telefono"`
	Direccion       string `json:"direccion,omitempty"`
	FechaNacimiento string `json:"fecha_nacimiento,omitempty"`
	Genero          string `json:"genero,omitempty"`
	Rol             Role   `json:"rol,omitempty"`
	Aprobado        bool   `json:"aprobado"`
}

func (t Technician) RecordID() string { return t.ID }

func (t *Technician) SetRecordID(id string) { t.ID = id }

// Pending reports whether the technician still awaits admin approval.
func (t Technician) Pending() bool { return !t.Aprobado }

// ReservationStatus values as the backend spells them.
const (
	ReservationPending  = "pendiente"
	ReservationApproved = "aprobada"
	ReservationRejected = "rechazada"
	ReservationFinished = "finalizada"
)

// ReservationEditWindow is how long after creation a client may still edit
// a pending reservation.
const ReservationEditWindow = 15 * time.Minute

// Reservation books a vehicle for a client between two dates.
type Reservation struct {
	ID          string    `json:"_id,omitempty"`
	Codigo      string    `json:"codigo,omitempty"`
	Descripcion string    `json:"descripcion"`
	Motivo      string    `json:"motivo,omitempty"`
	Cliente     Ref       `json:"cliente"`
	Vehiculo    Ref       `json:"vehiculo"`
	FechaInicio string    `json:"fecha_inicio"`
	FechaFin    string    `json:"fecha_fin"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r Reservation) RecordID() string { return r.ID }

func (r *Reservation) SetRecordID(id string) { r.ID = id }

// EditableBy reports whether the owning client may still edit r at now.
func (r Reservation) EditableBy(now time.Time) bool {
	if r.Status != ReservationPending || r.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(r.CreatedAt) < ReservationEditWindow
}

// Ticket statuses set by the technician screens.
const (
	TicketResolved        = "resuelto"
	TicketSentToTechnical = "enviado a servicio tecnico"
)

// Ticket is a support request handled by a technician.
type Ticket struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Solucion    string    `json:"solucion,omitempty"`
	Cliente     Ref       `json:"cliente"`
	Tecnico     Ref       `json:"tecnico"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (t Ticket) RecordID() string { return t.ID }

func (t *Ticket) SetRecordID(id string) { t.ID = id }
