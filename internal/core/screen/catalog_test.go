package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
)

// stubBackend implements only what a test touches; anything else panics.
type stubBackend struct {
	ports.Backend

	reservations []domain.Reservation
	tickets      []domain.Ticket
	pending      []domain.Technician
	clientsErr   error
	patches      []ports.Patch
	deleted      []string
}

func (s *stubBackend) ListReservations(context.Context, string) ([]domain.Reservation, error) {
	return s.reservations, nil
}

func (s *stubBackend) UpdateReservation(_ context.Context, _ string, id string, p ports.Patch) (domain.Reservation, error) {
	s.patches = append(s.patches, p)
	for _, r := range s.reservations {
		if r.ID == id {
			if st, ok := p["status"].(string); ok {
				r.Status = st
			}
			return r, nil
		}
	}
	return domain.Reservation{}, &domain.BackendError{Status: 404, Message: "Reserva no encontrada"}
}

func (s *stubBackend) ListClients(context.Context, string) ([]domain.Client, error) {
	if s.clientsErr != nil {
		return nil, s.clientsErr
	}
	return []domain.Client{{ID: "c1", Nombre: "Ana"}}, nil
}

func (s *stubBackend) ListVehicles(context.Context, string) ([]domain.Vehicle, error) {
	return []domain.Vehicle{{ID: "v1", Marca: "Kia"}}, nil
}

func (s *stubBackend) TechnicianTickets(context.Context, string) ([]domain.Ticket, error) {
	return s.tickets, nil
}

func (s *stubBackend) UpdateTicket(_ context.Context, _ string, id string, p ports.Patch) (domain.Ticket, error) {
	s.patches = append(s.patches, p)
	t := domain.Ticket{ID: id, Description: p["description"].(string), Status: p["status"].(string), Solucion: p["solucion"].(string)}
	return t, nil
}

func (s *stubBackend) PendingTechnicians(context.Context, string) ([]domain.Technician, error) {
	return s.pending, nil
}

func (s *stubBackend) DeleteTechnician(_ context.Context, _ string, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestCatalog_AdminReservationOptionsLoadInParallel(t *testing.T) {
	b := &stubBackend{reservations: []domain.Reservation{{ID: "r1", Descripcion: "x", Cliente: domain.Ref{ID: "c1"}, Vehiculo: domain.Ref{ID: "v1"}}}}
	m := New(NewCatalog(b, 0).AdminReservations(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Open(context.Background(), ModalEditing, "r1"))

	st := m.Snapshot()
	require.NotNil(t, st.Options)
	assert.Len(t, st.Options["clientes"], 1)
	assert.Len(t, st.Options["vehiculos"], 1)
}

func TestCatalog_AdminReservationOptionsFailureKeepsEditing(t *testing.T) {
	b := &stubBackend{
		reservations: []domain.Reservation{{ID: "r1"}},
		clientsErr:   errors.New("down"),
	}
	m := New(NewCatalog(b, 0).AdminReservations(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Open(context.Background(), ModalEditing, "r1"))
	st := m.Snapshot()
	assert.Equal(t, ModalEditing, st.Modal)
	assert.Nil(t, st.Options)
}

func TestCatalog_AdminReservationRequiresAllFields(t *testing.T) {
	b := &stubBackend{reservations: []domain.Reservation{{ID: "r1", Descripcion: "x", Cliente: domain.Ref{ID: "c1"}}}}
	m := New(NewCatalog(b, 0).AdminReservations(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Open(context.Background(), ModalEditing, "r1"))
	require.NoError(t, m.Submit(context.Background(), nil))

	assert.Equal(t, msgAllRequired, m.Snapshot().Notice.Text)
	assert.Empty(t, b.patches)
}

func TestCatalog_ApproveReservation(t *testing.T) {
	b := &stubBackend{reservations: []domain.Reservation{{ID: "r1", Status: domain.ReservationPending}}}
	m := New(NewCatalog(b, 0).AdminReservations(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Act(context.Background(), "aprobar", "r1", nil))

	st := m.Snapshot()
	assert.Equal(t, domain.ReservationApproved, st.Items[0].Status)
	assert.Equal(t, ports.Patch{"status": domain.ReservationApproved}, b.patches[0])
}

func TestCatalog_CloseTicketNeedsSolution(t *testing.T) {
	b := &stubBackend{tickets: []domain.Ticket{{ID: "t1", Description: "No enciende", Status: "en proceso"}}}
	m := New(NewCatalog(b, time.Hour).TechnicianTickets(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()
	ctx := context.Background()

	require.NoError(t, m.Act(ctx, "cerrar", "t1", nil))
	assert.Equal(t, msgSolutionToClose, m.Snapshot().Notice.Text)
	assert.Empty(t, b.patches)

	require.NoError(t, m.Open(ctx, ModalEditing, "t1"))
	draft := m.Snapshot().Draft
	draft.Solucion = "Cambio de batería"
	require.NoError(t, m.Act(ctx, "cerrar", "t1", draft))

	st := m.Snapshot()
	assert.Equal(t, ModalClosed, st.Modal)
	assert.Equal(t, domain.TicketResolved, st.Items[0].Status)
	assert.Equal(t, "Cambio de batería", st.Items[0].Solucion)
}

func TestCatalog_TicketEditRequiresDescriptionAndStatus(t *testing.T) {
	b := &stubBackend{tickets: []domain.Ticket{{ID: "t1", Description: "x", Status: "abierto"}}}
	m := New(NewCatalog(b, 0).TechnicianTickets(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalEditing, "t1"))
	require.NoError(t, m.Submit(ctx, &domain.Ticket{Description: "  ", Status: "abierto"}))

	assert.Equal(t, msgTicketRequired, m.Snapshot().Notice.Text)
}

func TestCatalog_RejectPendingTechnicianDropsIt(t *testing.T) {
	b := &stubBackend{pending: []domain.Technician{{ID: "p1"}, {ID: "p2"}}}
	m := New(NewCatalog(b, 0).PendingTechnicians(), &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Act(context.Background(), "rechazar", "p1", nil))

	st := m.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "p2", st.Items[0].ID)
	assert.Equal(t, []string{"p1"}, b.deleted)
	assert.Equal(t, "Técnico rechazado y eliminado", st.Notice.Text)
}
