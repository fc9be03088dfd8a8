// Package backendtest runs an in-memory implementation of the reservation
// REST backend for tests. It issues HS256 tokens, hashes passwords with
// bcrypt and enforces the same role rules as the real service.
package backendtest

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/reservation-console/internal/core/domain"
)

// DefaultCode is the verification code every new account receives.
const DefaultCode = "123456"

type doc = map[string]any

type account struct {
	hash     string
	verified bool
	code     string
}

// collection keeps documents in insertion order.
type collection struct {
	order []string
	docs  map[string]doc
}

func newCollection() *collection {
	return &collection{docs: make(map[string]doc)}
}

func (c *collection) insert(d doc) string {
	id, _ := d["_id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
		d["_id"] = id
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = d
	return id
}

func (c *collection) get(id string) (doc, bool) {
	d, ok := c.docs[id]
	return d, ok
}

func (c *collection) remove(id string) bool {
	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection) filter(keep func(doc) bool) []doc {
	out := make([]doc, 0, len(c.order))
	for _, id := range c.order {
		if d := c.docs[id]; keep == nil || keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	secret string

	mu           sync.Mutex
	accounts     map[string]*account
	people       *collection
	vehicles     *collection
	reservations *collection
	tickets      *collection
	requests     []string
	resent       map[string]int
	seq          int
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:       "backendtest-secret",
		accounts:     make(map[string]*account),
		people:       newCollection(),
		vehicles:     newCollection(),
		reservations: newCollection(),
		tickets:      newCollection(),
		resent:       make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request().Method+" "+c.Request().URL.Path)
		s.mu.Unlock()
		return next(c)
	}
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests counts received requests whose "METHOD /path" has prefix.
func (s *Server) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// ── Seeding ───────────────────────────────────────────────────────────────────

func (s *Server) addPerson(role domain.Role, email, password string, verified bool, fields doc) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("backendtest: hash password: %v", err))
	}
	d := doc{"email": email, "rol": string(role)}
	for k, v := range fields {
		d[k] = v
	}
	if role == domain.RoleTechnician {
		if _, ok := d["aprobado"]; !ok {
			d["aprobado"] = true
		}
	}
	id := s.people.insert(d)
	s.accounts[id] = &account{hash: string(hash), verified: verified, code: DefaultCode}
	return id
}

// SeedAdmin adds a verified admin and returns its id.
func (s *Server) SeedAdmin(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPerson(domain.RoleAdmin, email, password, true, nil)
}

// SeedClient adds a verified client with the given profile fields.
func (s *Server) SeedClient(email, password string, fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPerson(domain.RoleClient, email, password, true, fields)
}

// SeedUnverifiedClient adds a client that still has to confirm its email.
func (s *Server) SeedUnverifiedClient(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPerson(domain.RoleClient, email, password, false, nil)
}

// SeedTechnician adds a verified technician.
func (s *Server) SeedTechnician(email, password string, approved bool, fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := doc{"aprobado": approved}
	for k, v := range fields {
		f[k] = v
	}
	return s.addPerson(domain.RoleTechnician, email, password, true, f)
}

func (s *Server) SeedVehicle(v domain.Vehicle) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vehicles.insert(doc{"marca": v.Marca, "modelo": v.Modelo, "placa": v.Placa, "color": v.Color, "anio": v.Anio})
}

// SeedReservation adds a pending reservation created at createdAt.
func (s *Server) SeedReservation(clientID, vehicleID, descripcion string, createdAt time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations.insert(s.newReservation(doc{
		"descripcion":  descripcion,
		"cliente":      clientID,
		"vehiculo":     vehicleID,
		"fecha_inicio": createdAt.Format("2006-01-02"),
		"fecha_fin":    createdAt.AddDate(0, 0, 2).Format("2006-01-02"),
	}, createdAt))
}

// SeedTicket adds a ticket, assigned when technicianID is not empty.
func (s *Server) SeedTicket(title, description, clientID, technicianID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := "abierto"
	if technicianID != "" {
		status = "en proceso"
	}
	return s.tickets.insert(doc{
		"title":       title,
		"description": description,
		"status":      status,
		"cliente":     clientID,
		"tecnico":     technicianID,
		"createdAt":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) newReservation(d doc, createdAt time.Time) doc {
	s.seq++
	d["codigo"] = fmt.Sprintf("RES-%04d", s.seq)
	d["status"] = domain.ReservationPending
	d["createdAt"] = createdAt.UTC().Format(time.RFC3339)
	return d
}

// ── Inspection ────────────────────────────────────────────────────────────────

// Code returns the pending verification code for email.
func (s *Server) Code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.personByEmail(email); ok {
		return s.accounts[id].code
	}
	return ""
}

// Verified reports whether the account behind email confirmed its address.
func (s *Server) Verified(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.personByEmail(email); ok {
		return s.accounts[id].verified
	}
	return false
}

// Resent counts resend-code requests for email.
func (s *Server) Resent(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resent[email]
}

// Person returns a copy of the stored person document.
func (s *Server) Person(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.people.get(id)
	return clone(d), ok
}

// PersonByEmail returns the id of the person registered with email.
func (s *Server) PersonByEmail(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personByEmail(email)
}

// Reservation returns a copy of the stored reservation document.
func (s *Server) Reservation(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.reservations.get(id)
	return clone(d), ok
}

// ReservationIDs lists every stored reservation id in insertion order.
func (s *Server) ReservationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reservations.order...)
}

// Ticket returns a copy of the stored ticket document.
func (s *Server) Ticket(id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.tickets.get(id)
	return clone(d), ok
}

func (s *Server) personByEmail(email string) (string, bool) {
	for _, id := range s.people.order {
		if strings.EqualFold(s.people.docs[id]["email"].(string), email) {
			return id, true
		}
	}
	return "", false
}

func clone(d doc) doc {
	if d == nil {
		return nil
	}
	out := make(doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
