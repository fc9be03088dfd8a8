package screen

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
	"github.com/99minutos/reservation-console/internal/core/validation"
)

// Screen names double as registry keys.
const (
	ClientReservationsScreen = "cliente/reservas"
	TechnicianTicketsScreen  = "tecnico/tickets"
	IncomingTicketsScreen    = "tecnico/notificaciones"
	AdminReservationsScreen  = "admin/reservas"
	VehiclesScreen           = "admin/autos"
	ClientsScreen            = "admin/clientes"
	TechniciansScreen        = "admin/tecnicos"
	PendingTechniciansScreen = "admin/notificaciones"
)

const (
	msgAllRequired      = "Todos los campos son obligatorios"
	msgVehicleRequired  = "Marca, modelo y placa son obligatorios"
	msgTicketRequired   = "Descripción y estado son obligatorios"
	msgSolutionToClose  = "Debes ingresar la solución antes de cerrar el ticket."
	msgSolutionToSend   = "Debes ingresar la solución antes de enviar a servicio técnico."
	msgNotEditableAfter = "Solo puedes editar reservas pendientes durante los primeros 15 minutos"
)

// Catalog builds the Spec of every entity screen against one backend.
type Catalog struct {
	backend      ports.Backend
	pollInterval time.Duration
}

func NewCatalog(backend ports.Backend, pollInterval time.Duration) *Catalog {
	return &Catalog{backend: backend, pollInterval: pollInterval}
}

// ClientReservations is the client's own reservation list. It polls.
func (c *Catalog) ClientReservations() Spec[domain.Reservation] {
	b := c.backend
	return Spec[domain.Reservation]{
		Name: ClientReservationsScreen,
		Load: b.ListReservations,
		Update: func(ctx context.Context, token string, r domain.Reservation) (domain.Reservation, error) {
			return b.UpdateReservation(ctx, token, r.ID, ports.Patch{
				"motivo":       r.Motivo,
				"fecha_inicio": r.FechaInicio,
				"fecha_fin":    r.FechaFin,
			})
		},
		Delete: b.DeleteReservation,
		Validate: func(r domain.Reservation, _ time.Time) string {
			return validation.ValidateDateRange(r.FechaInicio, r.FechaFin)
		},
		Editable: func(r domain.Reservation, now time.Time) bool {
			return r.EditableBy(now)
		},
		PollInterval: c.pollInterval,
		Messages: Messages{
			LoadError:   "Error al cargar reservas",
			Updated:     "Reserva actualizada correctamente",
			UpdateError: "Error al actualizar reserva",
			Deleted:     "Reserva eliminada correctamente",
			DeleteError: "Error al eliminar reserva",
			NotEditable: msgNotEditableAfter,
		},
	}
}

type ticketEdit struct {
	Description string `json:"description" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

func ticketPatch(t domain.Ticket, status string) ports.Patch {
	return ports.Patch{
		"description": t.Description,
		"status":      status,
		"solucion":    t.Solucion,
	}
}

func requireSolution(msg string) func(domain.Ticket, time.Time) string {
	return func(t domain.Ticket, _ time.Time) string {
		if strings.TrimSpace(t.Solucion) == "" {
			return msg
		}
		return ""
	}
}

// TechnicianTickets lists the tickets assigned to the technician. It polls.
func (c *Catalog) TechnicianTickets() Spec[domain.Ticket] {
	b := c.backend
	transition := func(status string) func(context.Context, string, domain.Ticket) (domain.Ticket, error) {
		return func(ctx context.Context, token string, t domain.Ticket) (domain.Ticket, error) {
			return b.UpdateTicket(ctx, token, t.ID, ticketPatch(t, status))
		}
	}
	return Spec[domain.Ticket]{
		Name: TechnicianTicketsScreen,
		Load: b.TechnicianTickets,
		Update: func(ctx context.Context, token string, t domain.Ticket) (domain.Ticket, error) {
			return b.UpdateTicket(ctx, token, t.ID, ticketPatch(t, t.Status))
		},
		Delete: b.DeleteTicket,
		Validate: func(t domain.Ticket, _ time.Time) string {
			if len(validation.Missing(ticketEdit{Description: strings.TrimSpace(t.Description), Status: t.Status})) > 0 {
				return msgTicketRequired
			}
			return ""
		},
		Actions: map[string]Action[domain.Ticket]{
			"cerrar": {
				Apply:    transition(domain.TicketResolved),
				Validate: requireSolution(msgSolutionToClose),
				Success:  "Ticket cerrado correctamente",
				Failure:  "Error al cerrar ticket",
			},
			"enviar-servicio": {
				Apply:    transition(domain.TicketSentToTechnical),
				Validate: requireSolution(msgSolutionToSend),
				Success:  "Ticket enviado a servicio técnico",
				Failure:  "Error al enviar a servicio técnico",
			},
		},
		PollInterval: c.pollInterval,
		Messages: Messages{
			LoadError:   "No se pudieron cargar los tickets",
			Updated:     "Ticket actualizado correctamente",
			UpdateError: "Error al actualizar ticket",
			Deleted:     "Ticket eliminado correctamente",
			DeleteError: "Error al eliminar ticket",
		},
	}
}

// IncomingTickets lists unassigned tickets a technician can take.
func (c *Catalog) IncomingTickets() Spec[domain.Ticket] {
	b := c.backend
	return Spec[domain.Ticket]{
		Name: IncomingTicketsScreen,
		Load: b.PendingTickets,
		Actions: map[string]Action[domain.Ticket]{
			"tomar": {
				Apply: func(ctx context.Context, token string, t domain.Ticket) (domain.Ticket, error) {
					return b.TakeTicket(ctx, token, t.ID)
				},
				Drop:    true,
				Success: "Ticket tomado correctamente",
				Failure: "Error al tomar ticket",
			},
		},
		Messages: Messages{
			LoadError: "No se pudieron cargar los tickets pendientes",
		},
	}
}

type reservationEdit struct {
	Descripcion string `json:"descripcion" validate:"required"`
	Cliente     string `json:"cliente" validate:"required"`
	Vehiculo    string `json:"vehiculo" validate:"required"`
}

// AdminReservations is every reservation, with approval controls.
func (c *Catalog) AdminReservations() Spec[domain.Reservation] {
	b := c.backend
	setStatus := func(status string) func(context.Context, string, domain.Reservation) (domain.Reservation, error) {
		return func(ctx context.Context, token string, r domain.Reservation) (domain.Reservation, error) {
			return b.UpdateReservation(ctx, token, r.ID, ports.Patch{"status": status})
		}
	}
	return Spec[domain.Reservation]{
		Name: AdminReservationsScreen,
		Load: b.ListReservations,
		Update: func(ctx context.Context, token string, r domain.Reservation) (domain.Reservation, error) {
			return b.UpdateReservation(ctx, token, r.ID, ports.Patch{
				"descripcion":  r.Descripcion,
				"cliente":      r.Cliente.ID,
				"vehiculo":     r.Vehiculo.ID,
				"fecha_inicio": r.FechaInicio,
				"fecha_fin":    r.FechaFin,
			})
		},
		Delete: b.DeleteReservation,
		Validate: func(r domain.Reservation, _ time.Time) string {
			edit := reservationEdit{
				Descripcion: strings.TrimSpace(r.Descripcion),
				Cliente:     r.Cliente.ID,
				Vehiculo:    r.Vehiculo.ID,
			}
			if len(validation.Missing(edit)) > 0 {
				return msgAllRequired
			}
			return validation.ValidateDateRange(r.FechaInicio, r.FechaFin)
		},
		Options: func(ctx context.Context, token string) (map[string]any, error) {
			var (
				clients  []domain.Client
				vehicles []domain.Vehicle
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				clients, err = b.ListClients(gctx, token)
				return err
			})
			g.Go(func() error {
				var err error
				vehicles, err = b.ListVehicles(gctx, token)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return map[string]any{"clientes": clients, "vehiculos": vehicles}, nil
		},
		Actions: map[string]Action[domain.Reservation]{
			"aprobar": {
				Apply:   setStatus(domain.ReservationApproved),
				Success: "Reserva aprobada",
				Failure: "Error al aprobar la reserva",
			},
			"rechazar": {
				Apply:   setStatus(domain.ReservationRejected),
				Success: "Reserva rechazada",
				Failure: "Error al rechazar la reserva",
			},
		},
		Messages: Messages{
			LoadError:   "No se pudieron cargar las reservas",
			Updated:     "Reserva actualizada correctamente",
			UpdateError: "Error al actualizar reserva",
			Deleted:     "Reserva eliminada correctamente",
			DeleteError: "Error al eliminar reserva",
		},
	}
}

// Vehicles is the admin's fleet screen.
func (c *Catalog) Vehicles() Spec[domain.Vehicle] {
	b := c.backend
	required := func(msg string) func(domain.Vehicle, time.Time) string {
		return func(v domain.Vehicle, _ time.Time) string {
			v.Marca, v.Modelo, v.Placa = strings.TrimSpace(v.Marca), strings.TrimSpace(v.Modelo), strings.TrimSpace(v.Placa)
			if len(validation.Missing(v)) > 0 {
				return msg
			}
			return ""
		}
	}
	return Spec[domain.Vehicle]{
		Name:           VehiclesScreen,
		Load:           b.ListVehicles,
		Update:         b.UpdateVehicle,
		Create:         b.CreateVehicle,
		Delete:         b.DeleteVehicle,
		Validate:       required(msgAllRequired),
		ValidateCreate: required(msgVehicleRequired),
		Messages: Messages{
			LoadError:   "No se pudieron cargar los autos",
			Updated:     "Auto actualizado correctamente",
			UpdateError: "Error al actualizar auto",
			Created:     "Auto creado correctamente",
			CreateError: "Error al crear auto",
			Deleted:     "Auto eliminado correctamente",
			DeleteError: "Error al eliminar auto",
		},
	}
}

// Clients is the admin's customer screen.
func (c *Catalog) Clients() Spec[domain.Client] {
	b := c.backend
	return Spec[domain.Client]{
		Name:   ClientsScreen,
		Load:   b.ListClients,
		Update: b.UpdateClient,
		Delete: b.DeleteClient,
		Validate: func(cl domain.Client, now time.Time) string {
			return validation.ValidatePersona(validation.Persona{
				Nombre:          cl.Nombre,
				Apellido:        cl.Apellido,
				Cedula:          cl.Cedula,
				Telefono:        cl.Telefono,
				FechaNacimiento: cl.FechaNacimiento,
				Email:           cl.Email,
			}, now)
		},
		Messages: Messages{
			LoadError:   "No se pudieron cargar los clientes",
			Updated:     "Cliente actualizado correctamente",
			UpdateError: "Error al actualizar cliente",
			Deleted:     "Cliente eliminado correctamente",
			DeleteError: "Error al eliminar cliente",
		},
	}
}

// Technicians is the admin's staff screen.
func (c *Catalog) Technicians() Spec[domain.Technician] {
	b := c.backend
	return Spec[domain.Technician]{
		Name:   TechniciansScreen,
		Load:   b.ListTechnicians,
		Update: b.UpdateTechnician,
		Delete: b.DeleteTechnician,
		Validate: func(t domain.Technician, now time.Time) string {
			return validation.ValidatePersona(validation.Persona{
				Nombre:          t.Nombre,
				Apellido:        t.Apellido,
				Cedula:          t.Cedula,
				Telefono:        t.Telefono,
				FechaNacimiento: t.FechaNacimiento,
				Email:           t.Email,
			}, now)
		},
		Messages: Messages{
			LoadError:   "No se pudieron cargar los técnicos",
			Updated:     "Técnico actualizado correctamente",
			UpdateError: "Error al actualizar técnico",
			Deleted:     "Técnico eliminado correctamente",
			DeleteError: "Error al eliminar técnico",
		},
	}
}

// PendingTechnicians lists technician sign-ups waiting for approval.
func (c *Catalog) PendingTechnicians() Spec[domain.Technician] {
	b := c.backend
	return Spec[domain.Technician]{
		Name: PendingTechniciansScreen,
		Load: b.PendingTechnicians,
		Actions: map[string]Action[domain.Technician]{
			"aprobar": {
				Apply: func(ctx context.Context, token string, t domain.Technician) (domain.Technician, error) {
					return b.ApproveTechnician(ctx, token, t.ID)
				},
				Drop:    true,
				Success: "Técnico aprobado correctamente",
				Failure: "Error al aprobar técnico",
			},
			"rechazar": {
				Apply: func(ctx context.Context, token string, t domain.Technician) (domain.Technician, error) {
					return t, b.DeleteTechnician(ctx, token, t.ID)
				},
				Drop:    true,
				Success: "Técnico rechazado y eliminado",
				Failure: "Error al rechazar técnico",
			},
		},
		Messages: Messages{
			LoadError: "No se pudieron cargar las solicitudes de técnicos",
		},
	}
}
