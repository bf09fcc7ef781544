package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hospital-management-api/internal/model"
)

// Memory is an in-process Store with the same uniqueness and
// single-use guarantees as the Postgres implementation. It backs the
// handler tests and local runs without a database.
type Memory struct {
	mu           sync.Mutex
	users        map[string]*model.User
	appointments map[string]*model.Appointment
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*model.User),
		appointments: make(map[string]*model.Appointment),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func copyUser(u *model.User) *model.User {
	cp := *u
	if u.AvailableTimeSlots != nil {
		cp.AvailableTimeSlots = append([]model.DayAvailability(nil), u.AvailableTimeSlots...)
	}
	if u.InviteTokenExpiry != nil {
		t := *u.InviteTokenExpiry
		cp.InviteTokenExpiry = &t
	}
	return &cp
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	cp := *a
	if a.RescheduledDate != nil {
		t := *a.RescheduledDate
		cp.RescheduledDate = &t
	}
	return &cp
}

func (m *Memory) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if strings.EqualFold(ex.Email, u.Email) {
			return ErrDuplicate
		}
	}
	now := time.Now()
	cp := copyUser(u)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[cp.ID] = cp
	*u = *copyUser(cp)
	return nil
}

func (m *Memory) CreateFirstAdmin(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.users {
		if ex.Role == model.RoleAdmin {
			return ErrDuplicate
		}
		if strings.EqualFold(ex.Email, u.Email) {
			return ErrDuplicate
		}
	}
	now := time.Now()
	cp := copyUser(u)
	cp.Role = model.RoleAdmin
	cp.IsApproved = true
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.users[cp.ID] = cp
	*u = *copyUser(cp)
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// exact match, same as the unique-indexed column; callers pass the
	// stored lowercase form
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) findByInviteHash(hash string) *model.User {
	for _, u := range m.users {
		if u.InviteTokenHash == hash && u.InviteTokenExpiry != nil && u.InviteTokenExpiry.After(time.Now()) {
			return u
		}
	}
	return nil
}

func (m *Memory) UserByInviteHash(ctx context.Context, hash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.findByInviteHash(hash); u != nil {
		return copyUser(u), nil
	}
	return nil, ErrNotFound
}

func (m *Memory) RedeemInvite(ctx context.Context, hash, passwordHash, contactNumber string, slots []model.DayAvailability, approve bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findByInviteHash(hash)
	if u == nil {
		return nil, ErrNotFound
	}
	u.PasswordHash = passwordHash
	if contactNumber != "" {
		u.ContactNumber = contactNumber
	}
	if slots != nil {
		u.AvailableTimeSlots = append([]model.DayAvailability(nil), slots...)
	}
	if approve {
		u.IsApproved = true
	}
	u.InviteTokenHash = ""
	u.InviteTokenExpiry = nil
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (m *Memory) UpdateProfile(ctx context.Context, id, name, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if email != "" && !strings.EqualFold(email, u.Email) {
		for _, ex := range m.users {
			if ex.ID != id && strings.EqualFold(ex.Email, email) {
				return nil, ErrDuplicate
			}
		}
		u.Email = email
	}
	if name != "" {
		u.Name = name
	}
	u.UpdatedAt = time.Now()
	return copyUser(u), nil
}

func (m *Memory) SetApproved(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsApproved = true
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) PromoteToAdmin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = model.RoleAdmin
	u.IsApproved = true
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListDoctors(ctx context.Context, approved bool) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role == model.RoleDoctor && u.IsApproved == approved {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	// cascade, same as the FK in Postgres
	for aid, a := range m.appointments {
		if a.PatientID == id || a.DoctorID == id {
			delete(m.appointments, aid)
		}
	}
	return nil
}

func (m *Memory) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	cp := copyAppointment(a)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.appointments[cp.ID] = cp
	*a = *copyAppointment(cp)
	return nil
}

func (m *Memory) joinNames(a *model.Appointment) {
	if p, ok := m.users[a.PatientID]; ok {
		a.PatientName = p.Name
	}
	if d, ok := m.users[a.DoctorID]; ok {
		a.DoctorName = d.Name
	}
}

func (m *Memory) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyAppointment(a)
	m.joinNames(cp)
	return cp, nil
}

func (m *Memory) listLocked(match func(*model.Appointment) bool) []model.Appointment {
	var out []model.Appointment
	for _, a := range m.appointments {
		if match(a) {
			cp := copyAppointment(a)
			m.joinNames(cp)
			out = append(out, *cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out
}

func (m *Memory) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(a *model.Appointment) bool { return true }), nil
}

func (m *Memory) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *Memory) ListByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (m *Memory) HasBooking(ctx context.Context, doctorID string, date time.Time, slot string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && sameDay(a.Date, date) && a.TimeSlot == slot && a.Status != model.StatusDeclined {
			return true, nil
		}
	}
	return false, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *Memory) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, reschedDate *time.Time, reschedSlot string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = status
	a.RescheduledDate = reschedDate
	a.RescheduledTimeSlot = reschedSlot
	a.UpdatedAt = time.Now()
	cp := copyAppointment(a)
	m.joinNames(cp)
	return cp, nil
}

func (m *Memory) DeleteAppointment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}
