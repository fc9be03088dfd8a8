// Package screen implements the list/detail CRUD screens of the console.
//
// Every entity screen is a Module parameterised by its record type and a
// Spec naming the backend calls and user-facing messages. A Module is
// mounted when the visitor navigates to it and unmounted when they leave;
// pollers and in-flight responses are bound to that mount.
package screen

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/pkg/metrics"
)

type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseLoadError Phase = "load-error"
)

type Modal string

const (
	ModalClosed   Modal = "closed"
	ModalViewing  Modal = "viewing"
	ModalEditing  Modal = "editing"
	ModalDeleting Modal = "deleting"
	ModalCreating Modal = "creating"
)

// Credentials is the session handle a screen acts with.
type Credentials interface {
	Token() string
	Identity() *domain.Identity
	Invalidate(ctx context.Context)
}

// Messages are the banners a screen shows. Failure texts are fallbacks used
// when the backend gives no message of its own.
type Messages struct {
	LoadError   string
	Updated     string
	UpdateError string
	Created     string
	CreateError string
	Deleted     string
	DeleteError string
	NotEditable string
}

// Action is a named mutation beyond plain update/delete, such as approving
// a reservation or taking a ticket.
type Action[T domain.Record] struct {
	Apply    func(ctx context.Context, token string, rec T) (T, error)
	Validate func(rec T, now time.Time) string
	// Drop removes the record from the list once the action succeeds.
	Drop    bool
	Success string
	Failure string
}

// Spec configures a Module. A nil function disables that capability.
type Spec[T domain.Record] struct {
	Name           string
	Load           func(ctx context.Context, token string) ([]T, error)
	Update         func(ctx context.Context, token string, draft T) (T, error)
	Create         func(ctx context.Context, token string, draft T) (T, error)
	Delete         func(ctx context.Context, token, id string) error
	Validate       func(draft T, now time.Time) string
	ValidateCreate func(draft T, now time.Time) string
	Editable       func(rec T, now time.Time) bool
	// Options loads the lookup lists an edit form needs.
	Options      func(ctx context.Context, token string) (map[string]any, error)
	Actions      map[string]Action[T]
	PollInterval time.Duration
	Messages     Messages
}

type Notice struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func errorNotice(text string) *Notice   { return &Notice{Kind: "error", Text: text} }
func successNotice(text string) *Notice { return &Notice{Kind: "success", Text: text} }

// Capabilities tells the view which controls to offer.
type Capabilities struct {
	Create  bool     `json:"create"`
	Update  bool     `json:"update"`
	Delete  bool     `json:"delete"`
	Actions []string `json:"actions,omitempty"`
}

// State is a rendered snapshot of a Module.
type State[T domain.Record] struct {
	Screen       string         `json:"screen"`
	Phase        Phase          `json:"phase"`
	Modal        Modal          `json:"modal"`
	Items        []T            `json:"items"`
	Selected     *T             `json:"selected,omitempty"`
	Draft        *T             `json:"draft,omitempty"`
	Options      map[string]any `json:"options,omitempty"`
	Notice       *Notice        `json:"notice,omitempty"`
	Capabilities Capabilities   `json:"capabilities"`
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now for edit windows and date checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Module is one mounted instance of an entity screen.
type Module[T domain.Record] struct {
	spec  Spec[T]
	creds Credentials
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	mounted  bool
	closed   bool
	gen      uint64
	cancel   context.CancelFunc
	phase    Phase
	modal    Modal
	items    []T
	selected string
	draft    *T
	options  map[string]any
	notice   *Notice
}

func New[T domain.Record](spec Spec[T], creds Credentials, log zerolog.Logger, opts ...Option) *Module[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Module[T]{
		spec:  spec,
		creds: creds,
		log:   log.With().Str("screen", spec.Name).Logger(),
		now:   o.now,
		phase: PhaseLoading,
		modal: ModalClosed,
	}
}

func (m *Module[T]) Name() string { return m.spec.Name }

// Mount starts a fresh mount: it fetches the list and, for polling screens,
// starts the background refetch. A previous mount of m is discarded first.
// Mount does nothing once m has been unmounted.
func (m *Module[T]) Mount(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.mounted {
		m.unmountLocked()
	}
	m.gen++
	gen := m.gen
	m.mounted = true
	m.phase = PhaseLoading
	m.modal = ModalClosed
	m.items = nil
	m.selected = ""
	m.draft = nil
	m.options = nil
	m.notice = nil
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.mu.Unlock()

	metrics.MountedScreens.WithLabelValues(m.spec.Name).Inc()

	if m.spec.Load != nil {
		items, err := m.spec.Load(ctx, m.creds.Token())
		m.applyLoad(ctx, gen, items, err, true)
	} else {
		m.applyLoad(ctx, gen, nil, nil, true)
	}

	if m.spec.PollInterval > 0 {
		go m.poll(pollCtx, gen)
	}
}

// Unmount cancels the poller and retires m for good, even when it has not
// mounted yet. Responses still in flight are ignored.
func (m *Module[T]) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.mounted {
		m.unmountLocked()
	}
}

func (m *Module[T]) unmountLocked() {
	m.mounted = false
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	metrics.MountedScreens.WithLabelValues(m.spec.Name).Dec()
}

func (m *Module[T]) Mounted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounted
}

func (m *Module[T]) poll(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.spec.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// No dedup: a slow fetch may overlap the next tick, last response wins.
			go m.refresh(ctx, gen)
		}
	}
}

func (m *Module[T]) refresh(ctx context.Context, gen uint64) {
	items, err := m.spec.Load(ctx, m.creds.Token())
	if ctx.Err() != nil {
		metrics.PollFetchesTotal.WithLabelValues(m.spec.Name, "stale").Inc()
		return
	}
	m.applyLoad(ctx, gen, items, err, false)
}

func (m *Module[T]) applyLoad(ctx context.Context, gen uint64, items []T, err error, initial bool) {
	if err != nil {
		m.checkAuth(ctx, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted || m.gen != gen {
		if !initial {
			metrics.PollFetchesTotal.WithLabelValues(m.spec.Name, "stale").Inc()
		}
		return
	}

	if err != nil {
		if initial {
			m.log.Warn().Err(err).Msg("screen load failed")
			m.phase = PhaseLoadError
			m.notice = errorNotice(m.spec.Messages.LoadError)
			return
		}
		metrics.PollFetchesTotal.WithLabelValues(m.spec.Name, "error").Inc()
		m.log.Warn().Err(err).Msg("poll refetch failed, keeping current list")
		return
	}

	if items == nil {
		items = []T{}
	}
	m.items = items
	if initial {
		m.phase = PhaseReady
	} else {
		metrics.PollFetchesTotal.WithLabelValues(m.spec.Name, "applied").Inc()
	}
}

// checkAuth drops the session when the backend rejects the token.
func (m *Module[T]) checkAuth(ctx context.Context, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		m.creds.Invalidate(context.WithoutCancel(ctx))
	}
}

// Open moves the modal out of closed. Only a ready screen with no open
// overlay accepts it.
func (m *Module[T]) Open(ctx context.Context, mode Modal, id string) error {
	m.mu.Lock()
	if err := m.readyLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.modal != ModalClosed {
		m.mu.Unlock()
		return domain.ErrModalState
	}

	switch mode {
	case ModalViewing:
		if _, ok := m.findLocked(id); !ok {
			m.mu.Unlock()
			return domain.ErrNotFound
		}
		m.openLocked(ModalViewing, id, nil)
		m.mu.Unlock()
		return nil

	case ModalDeleting:
		if m.spec.Delete == nil {
			m.mu.Unlock()
			return domain.ErrUnsupported
		}
		if _, ok := m.findLocked(id); !ok {
			m.mu.Unlock()
			return domain.ErrNotFound
		}
		m.openLocked(ModalDeleting, id, nil)
		m.mu.Unlock()
		return nil

	case ModalCreating:
		if m.spec.Create == nil {
			m.mu.Unlock()
			return domain.ErrUnsupported
		}
		var zero T
		m.openLocked(ModalCreating, "", &zero)
		m.mu.Unlock()
		return nil

	case ModalEditing:
		if m.spec.Update == nil {
			m.mu.Unlock()
			return domain.ErrUnsupported
		}
		rec, ok := m.findLocked(id)
		if !ok {
			m.mu.Unlock()
			return domain.ErrNotFound
		}
		if m.spec.Editable != nil && !m.spec.Editable(rec, m.now()) {
			m.notice = errorNotice(m.spec.Messages.NotEditable)
			m.mu.Unlock()
			return nil
		}
		draft := rec
		m.openLocked(ModalEditing, id, &draft)
		gen := m.gen
		m.mu.Unlock()

		if m.spec.Options != nil {
			m.loadOptions(ctx, gen)
		}
		return nil
	}

	m.mu.Unlock()
	return domain.ErrModalState
}

func (m *Module[T]) openLocked(mode Modal, id string, draft *T) {
	m.modal = mode
	m.selected = id
	m.draft = draft
	m.options = nil
	m.notice = nil
}

func (m *Module[T]) loadOptions(ctx context.Context, gen uint64) {
	opts, err := m.spec.Options(ctx, m.creds.Token())
	if err != nil {
		m.checkAuth(ctx, err)
		m.log.Warn().Err(err).Msg("edit options failed to load")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mounted && m.gen == gen && m.modal == ModalEditing {
		m.options = opts
	}
}

// Close returns to the plain list.
func (m *Module[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modal = ModalClosed
	m.selected = ""
	m.draft = nil
	m.options = nil
	m.notice = nil
}

// Submit completes the open overlay: it saves the edit, posts the new
// record or confirms the delete. form replaces the draft when given.
// Validation and backend failures leave the overlay open with a notice.
func (m *Module[T]) Submit(ctx context.Context, form *T) error {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return domain.ErrNotMounted
	}
	modal, selected, gen := m.modal, m.selected, m.gen

	switch modal {
	case ModalEditing:
		draft := m.takeDraftLocked(form)
		if msg := m.validateLocked(m.spec.Validate, draft); msg != "" {
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		updated, err := m.spec.Update(ctx, m.creds.Token(), draft)
		m.finish(ctx, gen, err, m.spec.Messages.UpdateError, func() {
			if updated.RecordID() == "" {
				updated = draft
			}
			m.replaceLocked(selected, updated)
			m.closeLocked(successNotice(m.spec.Messages.Updated))
		})
		return nil

	case ModalCreating:
		draft := m.takeDraftLocked(form)
		check := m.spec.ValidateCreate
		if check == nil {
			check = m.spec.Validate
		}
		if msg := m.validateLocked(check, draft); msg != "" {
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		created, err := m.spec.Create(ctx, m.creds.Token(), draft)
		m.finish(ctx, gen, err, m.spec.Messages.CreateError, func() {
			m.upsertLocked(created)
			m.closeLocked(successNotice(m.spec.Messages.Created))
		})
		return nil

	case ModalDeleting:
		m.mu.Unlock()

		err := m.spec.Delete(ctx, m.creds.Token(), selected)
		m.finish(ctx, gen, err, m.spec.Messages.DeleteError, func() {
			m.removeLocked(selected)
			m.closeLocked(successNotice(m.spec.Messages.Deleted))
		})
		return nil
	}

	m.mu.Unlock()
	return domain.ErrModalState
}

// Act runs a named action on the record with the given id. When the edit
// overlay is open on that record the draft is acted on instead, so values
// typed into the form (such as a ticket's solution) are sent along.
func (m *Module[T]) Act(ctx context.Context, name, id string, form *T) error {
	action, ok := m.spec.Actions[name]
	if !ok {
		return domain.ErrUnsupported
	}

	m.mu.Lock()
	if err := m.readyLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	rec, found := m.findLocked(id)
	if !found {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	switch {
	case form != nil:
		rec = *form
		setID(&rec, id)
	case m.modal == ModalEditing && m.selected == id && m.draft != nil:
		rec = *m.draft
	}
	if action.Validate != nil {
		if msg := action.Validate(rec, m.now()); msg != "" {
			if m.modal == ModalEditing && m.selected == id {
				m.draft = &rec
			}
			m.notice = errorNotice(msg)
			m.mu.Unlock()
			return nil
		}
	}
	gen := m.gen
	m.mu.Unlock()

	result, err := action.Apply(ctx, m.creds.Token(), rec)
	m.finish(ctx, gen, err, action.Failure, func() {
		if action.Drop {
			m.removeLocked(id)
		} else {
			if result.RecordID() == "" {
				result = rec
			}
			m.replaceLocked(id, result)
		}
		if m.selected == id {
			m.closeLocked(nil)
		}
		m.notice = successNotice(action.Success)
	})
	return nil
}

// finish applies the outcome of a mutation if the mount that issued it is
// still current.
func (m *Module[T]) finish(ctx context.Context, gen uint64, err error, fallback string, onSuccess func()) {
	if err != nil {
		m.checkAuth(ctx, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.mounted || m.gen != gen {
		m.log.Debug().Msg("dropping mutation result for unmounted screen")
		return
	}
	if err != nil {
		m.log.Warn().Err(err).Msg("screen mutation failed")
		m.notice = errorNotice(domain.MessageOr(err, fallback))
		return
	}
	onSuccess()
}

// setID pins the draft to the record being edited, whatever the form said.
func setID[T domain.Record](rec *T, id string) {
	if s, ok := any(rec).(interface{ SetRecordID(string) }); ok {
		s.SetRecordID(id)
	}
}

func (m *Module[T]) readyLocked() error {
	if !m.mounted {
		return domain.ErrNotMounted
	}
	if m.phase != PhaseReady {
		return domain.ErrModalState
	}
	return nil
}

func (m *Module[T]) takeDraftLocked(form *T) T {
	var draft T
	switch {
	case form != nil:
		draft = *form
	case m.draft != nil:
		draft = *m.draft
	}
	if m.modal == ModalEditing {
		setID(&draft, m.selected)
	}
	m.draft = &draft
	return draft
}

func (m *Module[T]) validateLocked(check func(T, time.Time) string, draft T) string {
	if check == nil {
		return ""
	}
	msg := check(draft, m.now())
	if msg != "" {
		m.notice = errorNotice(msg)
	}
	return msg
}

func (m *Module[T]) closeLocked(n *Notice) {
	m.modal = ModalClosed
	m.selected = ""
	m.draft = nil
	m.options = nil
	m.notice = n
}

func (m *Module[T]) findLocked(id string) (T, bool) {
	for _, it := range m.items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (m *Module[T]) replaceLocked(id string, rec T) {
	for i, it := range m.items {
		if it.RecordID() == id {
			m.items[i] = rec
			return
		}
	}
}

// upsertLocked keeps each id in the list exactly once.
func (m *Module[T]) upsertLocked(rec T) {
	for i, it := range m.items {
		if it.RecordID() == rec.RecordID() {
			m.items[i] = rec
			return
		}
	}
	m.items = append(m.items, rec)
}

func (m *Module[T]) removeLocked(id string) {
	kept := make([]T, 0, len(m.items))
	for _, it := range m.items {
		if it.RecordID() != id {
			kept = append(kept, it)
		}
	}
	m.items = kept
}

// Snapshot renders the current state. Items are copied.
func (m *Module[T]) Snapshot() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]T, len(m.items))
	copy(items, m.items)

	st := State[T]{
		Screen:       m.spec.Name,
		Phase:        m.phase,
		Modal:        m.modal,
		Items:        items,
		Options:      m.options,
		Notice:       m.notice,
		Capabilities: m.capabilities(),
	}
	if m.selected != "" {
		if rec, ok := m.findLocked(m.selected); ok {
			st.Selected = &rec
		}
	}
	if m.draft != nil {
		d := *m.draft
		st.Draft = &d
	}
	return st
}

func (m *Module[T]) capabilities() Capabilities {
	c := Capabilities{
		Create: m.spec.Create != nil,
		Update: m.spec.Update != nil,
		Delete: m.spec.Delete != nil,
	}
	for name := range m.spec.Actions {
		c.Actions = append(c.Actions, name)
	}
	slices.Sort(c.Actions)
	return c
}
