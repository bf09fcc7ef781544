// Package store persists users and appointments. Handlers depend on
// the interfaces; Postgres is the production implementation and Memory
// backs the tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hospital-management-api/internal/model"
)

var (
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate means a uniqueness constraint was violated
	// (email, invite hash, or the single-admin bootstrap guard).
	ErrDuplicate = errors.New("already exists")
)

// UserStore persists user records, credentials and invite tokens.
type UserStore interface {
	// CreateUser inserts a new user. The email unique index is the
	// final backstop against concurrent registrations.
	CreateUser(ctx context.Context, u *model.User) error

	// CreateFirstAdmin inserts the bootstrap admin as a single
	// conditional insert. Returns ErrDuplicate if any admin exists.
	CreateFirstAdmin(ctx context.Context, u *model.User) error

	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)

	// UserByInviteHash finds a doctor whose invite token digest
	// matches and has not expired. Read-only.
	UserByInviteHash(ctx context.Context, hash string) (*model.User, error)

	// RedeemInvite completes an invite in one atomic step: the update
	// matches on hash+expiry and clears both, so a second redemption
	// of the same token fails with ErrNotFound.
	RedeemInvite(ctx context.Context, hash, passwordHash, contactNumber string, slots []model.DayAvailability, approve bool) (*model.User, error)

	UpdateProfile(ctx context.Context, id, name, email string) (*model.User, error)
	SetApproved(ctx context.Context, id string) error
	PromoteToAdmin(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]model.User, error)
	ListDoctors(ctx context.Context, approved bool) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AppointmentStore persists appointments.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	AppointmentByID(ctx context.Context, id string) (*model.Appointment, error)

	// ListAppointments returns every appointment with patient and
	// doctor names joined in.
	ListAppointments(ctx context.Context) ([]model.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error)

	// HasBooking reports whether a non-Declined appointment already
	// holds the (doctor, date, slot).
	HasBooking(ctx context.Context, doctorID string, date time.Time, slot string) (bool, error)

	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, reschedDate *time.Time, reschedSlot string) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// Store is everything the handlers need.
type Store interface {
	UserStore
	AppointmentStore
	Ping(ctx context.Context) error
}

// Postgres implements Store on a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
