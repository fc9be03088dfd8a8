package screen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

type fakeCreds struct {
	mu          sync.Mutex
	token       string
	invalidated int
}

func (f *fakeCreds) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) Identity() *domain.Identity {
	return &domain.Identity{ID: "u1", Role: domain.RoleAdmin}
}

func (f *fakeCreds) Invalidate(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
	f.token = ""
}

func vehicles(ids ...string) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Vehicle{ID: id, Marca: "Kia", Modelo: "Rio", Placa: "PBA-" + id})
	}
	return out
}

func vehicleSpec() Spec[domain.Vehicle] {
	return Spec[domain.Vehicle]{
		Name: "test/autos",
		Load: func(context.Context, string) ([]domain.Vehicle, error) {
			return vehicles("1", "2"), nil
		},
		Update: func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
			v.Color = "server"
			return v, nil
		},
		Create: func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
			v.ID = "3"
			return v, nil
		},
		Delete: func(context.Context, string, string) error { return nil },
		Validate: func(v domain.Vehicle, _ time.Time) string {
			if v.Placa == "" {
				return "Todos los campos son obligatorios"
			}
			return ""
		},
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

func mounted(t *testing.T, spec Spec[domain.Vehicle], creds Credentials) *Module[domain.Vehicle] {
	t.Helper()
	m := New(spec, creds, zerolog.Nop())
	m.Mount(context.Background())
	t.Cleanup(m.Unmount)
	return m
}

func TestModule_MountLoadsItems(t *testing.T) {
	m := mounted(t, vehicleSpec(), &fakeCreds{token: "tok"})

	st := m.Snapshot()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, ModalClosed, st.Modal)
	assert.Len(t, st.Items, 2)
	assert.True(t, st.Capabilities.Create)
}

func TestModule_LoadFailureIsTerminal(t *testing.T) {
	spec := vehicleSpec()
	spec.Load = func(context.Context, string) ([]domain.Vehicle, error) {
		return nil, errors.New("boom")
	}
	m := mounted(t, spec, &fakeCreds{token: "tok"})

	st := m.Snapshot()
	assert.Equal(t, PhaseLoadError, st.Phase)
	require.NotNil(t, st.Notice)
	assert.Equal(t, "No se pudieron cargar los autos", st.Notice.Text)
	assert.ErrorIs(t, m.Open(context.Background(), ModalCreating, ""), domain.ErrModalState)
}

func TestModule_CreateAppendsOnce(t *testing.T) {
	m := mounted(t, vehicleSpec(), &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalCreating, ""))
	require.NoError(t, m.Submit(ctx, &domain.Vehicle{Marca: "Mazda", Modelo: "3", Placa: "PCC-1"}))

	st := m.Snapshot()
	assert.Equal(t, ModalClosed, st.Modal)
	assert.Nil(t, st.Draft)
	require.Len(t, st.Items, 3)
	assert.Equal(t, "3", st.Items[2].ID)
	assert.Equal(t, "Auto creado correctamente", st.Notice.Text)

	// a second create returning the same id must not duplicate it
	require.NoError(t, m.Open(ctx, ModalCreating, ""))
	require.NoError(t, m.Submit(ctx, &domain.Vehicle{Marca: "Mazda", Modelo: "3", Placa: "PCC-2"}))
	st = m.Snapshot()
	require.Len(t, st.Items, 3)
	assert.Equal(t, "PCC-2", st.Items[2].Placa)
}

func TestModule_UpdateReplacesWithServerRecord(t *testing.T) {
	m := mounted(t, vehicleSpec(), &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalEditing, "2"))
	st := m.Snapshot()
	require.NotNil(t, st.Draft)
	assert.Equal(t, "2", st.Draft.ID)

	// the form cannot retarget another record
	require.NoError(t, m.Submit(ctx, &domain.Vehicle{ID: "1", Marca: "Kia", Modelo: "Soul", Placa: "PBA-2"}))

	st = m.Snapshot()
	assert.Equal(t, ModalClosed, st.Modal)
	assert.Equal(t, "Rio", st.Items[0].Modelo)
	assert.Equal(t, "Soul", st.Items[1].Modelo)
	assert.Equal(t, "server", st.Items[1].Color)
}

func TestModule_UpdateFailureKeepsRecord(t *testing.T) {
	spec := vehicleSpec()
	spec.Update = func(context.Context, string, domain.Vehicle) (domain.Vehicle, error) {
		return domain.Vehicle{}, &domain.BackendError{Status: 400, Message: "La placa ya existe"}
	}
	m := mounted(t, spec, &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalEditing, "1"))
	require.NoError(t, m.Submit(ctx, &domain.Vehicle{Marca: "Kia", Modelo: "Soul", Placa: "DUP"}))

	st := m.Snapshot()
	assert.Equal(t, ModalEditing, st.Modal)
	assert.Equal(t, "Rio", st.Items[0].Modelo)
	assert.Equal(t, "Soul", st.Draft.Modelo)
	assert.Equal(t, "La placa ya existe", st.Notice.Text)

	spec.Update = func(context.Context, string, domain.Vehicle) (domain.Vehicle, error) {
		return domain.Vehicle{}, errors.New("connection reset")
	}
	m2 := mounted(t, spec, &fakeCreds{token: "tok"})
	require.NoError(t, m2.Open(ctx, ModalEditing, "1"))
	require.NoError(t, m2.Submit(ctx, nil))
	assert.Equal(t, "Error al actualizar auto", m2.Snapshot().Notice.Text)
}

func TestModule_ValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	spec := vehicleSpec()
	spec.Update = func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
		calls.Add(1)
		return v, nil
	}
	m := mounted(t, spec, &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalEditing, "1"))
	require.NoError(t, m.Submit(ctx, &domain.Vehicle{Marca: "Kia", Modelo: "Rio"}))

	assert.Zero(t, calls.Load())
	st := m.Snapshot()
	assert.Equal(t, ModalEditing, st.Modal)
	assert.Equal(t, "Todos los campos son obligatorios", st.Notice.Text)
}

func TestModule_DeleteRemovesRecord(t *testing.T) {
	m := mounted(t, vehicleSpec(), &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalDeleting, "1"))
	require.NoError(t, m.Submit(ctx, nil))

	st := m.Snapshot()
	assert.Equal(t, ModalClosed, st.Modal)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "2", st.Items[0].ID)
	assert.Equal(t, "Auto eliminado correctamente", st.Notice.Text)
}

func TestModule_DeleteFailureStaysOpen(t *testing.T) {
	spec := vehicleSpec()
	spec.Delete = func(context.Context, string, string) error { return errors.New("timeout") }
	m := mounted(t, spec, &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalDeleting, "1"))
	require.NoError(t, m.Submit(ctx, nil))

	st := m.Snapshot()
	assert.Equal(t, ModalDeleting, st.Modal)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, "Error al eliminar auto", st.Notice.Text)
}

func TestModule_OpenRequiresClosedModal(t *testing.T) {
	m := mounted(t, vehicleSpec(), &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Open(ctx, ModalViewing, "1"))
	assert.ErrorIs(t, m.Open(ctx, ModalEditing, "1"), domain.ErrModalState)
	m.Close()
	assert.ErrorIs(t, m.Open(ctx, ModalViewing, "nope"), domain.ErrNotFound)
	assert.ErrorIs(t, m.Submit(ctx, nil), domain.ErrModalState)
}

func TestModule_LateResponseAfterUnmountIsIgnored(t *testing.T) {
	release := make(chan struct{})
	spec := vehicleSpec()
	spec.Update = func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
		<-release
		return v, nil
	}
	m := New(spec, &fakeCreds{token: "tok"}, zerolog.Nop())
	ctx := context.Background()
	m.Mount(ctx)

	require.NoError(t, m.Open(ctx, ModalEditing, "1"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Submit(ctx, &domain.Vehicle{Marca: "Late", Modelo: "X", Placa: "Y"})
	}()

	m.Unmount()
	close(release)
	<-done

	st := m.Snapshot()
	assert.False(t, m.Mounted())
	assert.Equal(t, "Kia", st.Items[0].Marca)
	assert.Equal(t, ModalEditing, st.Modal, "state must not move after unmount")
}

func TestModule_PollingStopsOnUnmount(t *testing.T) {
	var loads atomic.Int32
	spec := vehicleSpec()
	spec.PollInterval = 5 * time.Millisecond
	spec.Load = func(context.Context, string) ([]domain.Vehicle, error) {
		n := loads.Add(1)
		if n == 1 {
			return vehicles("1"), nil
		}
		return vehicles("1", "2"), nil
	}
	m := New(spec, &fakeCreds{token: "tok"}, zerolog.Nop())
	m.Mount(context.Background())

	require.Eventually(t, func() bool { return len(m.Snapshot().Items) == 2 }, time.Second, 5*time.Millisecond)

	m.Unmount()
	time.Sleep(20 * time.Millisecond)
	after := loads.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, loads.Load(), "no fetches after unmount")
}

func TestModule_UnmountBeforeMountIsFinal(t *testing.T) {
	var loads atomic.Int32
	spec := vehicleSpec()
	spec.Load = func(context.Context, string) ([]domain.Vehicle, error) {
		loads.Add(1)
		return vehicles("1"), nil
	}
	m := New(spec, &fakeCreds{token: "tok"}, zerolog.Nop())

	m.Unmount()
	m.Mount(context.Background())

	assert.False(t, m.Mounted())
	assert.Zero(t, loads.Load())
	assert.Equal(t, PhaseLoading, m.Snapshot().Phase)
}

func TestModule_PollFailureKeepsList(t *testing.T) {
	var loads atomic.Int32
	spec := vehicleSpec()
	spec.PollInterval = 5 * time.Millisecond
	spec.Load = func(context.Context, string) ([]domain.Vehicle, error) {
		if loads.Add(1) == 1 {
			return vehicles("1", "2"), nil
		}
		return nil, errors.New("backend down")
	}
	m := mounted(t, spec, &fakeCreds{token: "tok"})

	require.Eventually(t, func() bool { return loads.Load() >= 3 }, time.Second, 5*time.Millisecond)
	st := m.Snapshot()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Len(t, st.Items, 2)
}

func TestModule_UnauthorizedInvalidatesSession(t *testing.T) {
	spec := vehicleSpec()
	spec.Load = func(context.Context, string) ([]domain.Vehicle, error) {
		return nil, &domain.BackendError{Status: 401, Message: "Token inválido"}
	}
	creds := &fakeCreds{token: "tok"}
	m := mounted(t, spec, creds)

	assert.Equal(t, PhaseLoadError, m.Snapshot().Phase)
	assert.Equal(t, 1, creds.invalidated)
}

func TestModule_ActionDropsRecord(t *testing.T) {
	spec := vehicleSpec()
	spec.Actions = map[string]Action[domain.Vehicle]{
		"retirar": {
			Apply:   func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) { return v, nil },
			Drop:    true,
			Success: "Retirado",
		},
		"pintar": {
			Apply: func(_ context.Context, _ string, v domain.Vehicle) (domain.Vehicle, error) {
				v.Color = "rojo"
				return v, nil
			},
			Validate: func(v domain.Vehicle, _ time.Time) string {
				if v.Marca == "" {
					return "sin marca"
				}
				return ""
			},
		},
	}
	m := mounted(t, spec, &fakeCreds{token: "tok"})
	ctx := context.Background()

	require.NoError(t, m.Act(ctx, "retirar", "1", nil))
	st := m.Snapshot()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Retirado", st.Notice.Text)

	require.NoError(t, m.Act(ctx, "pintar", "2", nil))
	assert.Equal(t, "rojo", m.Snapshot().Items[0].Color)

	require.NoError(t, m.Act(ctx, "pintar", "2", &domain.Vehicle{}))
	assert.Equal(t, "sin marca", m.Snapshot().Notice.Text)

	assert.ErrorIs(t, m.Act(ctx, "volar", "2", nil), domain.ErrUnsupported)
	assert.Equal(t, []string{"pintar", "retirar"}, m.Snapshot().Capabilities.Actions)
}

func TestModule_EditableGate(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	spec := Spec[domain.Reservation]{
		Name: "test/reservas",
		Load: func(context.Context, string) ([]domain.Reservation, error) {
			return []domain.Reservation{
				{ID: "fresh", Status: domain.ReservationPending, CreatedAt: now.Add(-5 * time.Minute)},
				{ID: "old", Status: domain.ReservationPending, CreatedAt: now.Add(-20 * time.Minute)},
			}, nil
		},
		Update: func(_ context.Context, _ string, r domain.Reservation) (domain.Reservation, error) { return r, nil },
		Editable: func(r domain.Reservation, at time.Time) bool {
			return r.EditableBy(at)
		},
		Messages: Messages{NotEditable: "no editable"},
	}
	m := New(spec, &fakeCreds{token: "tok"}, zerolog.Nop(), WithClock(func() time.Time { return now }))
	m.Mount(context.Background())
	defer m.Unmount()

	require.NoError(t, m.Open(context.Background(), ModalEditing, "old"))
	st := m.Snapshot()
	assert.Equal(t, ModalClosed, st.Modal)
	assert.Equal(t, "no editable", st.Notice.Text)

	require.NoError(t, m.Open(context.Background(), ModalEditing, "fresh"))
	assert.Equal(t, ModalEditing, m.Snapshot().Modal)
}
