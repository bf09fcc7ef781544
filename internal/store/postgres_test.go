package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hospital-management-api/internal/database"
	"hospital-management-api/internal/model"
)

// testPostgres connects to DATABASE_URL, applies migrations and wipes
// the tables. Skipped when no database is configured.
func testPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := database.RunMigrations(url); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(context.Background(), `TRUNCATE appointments, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return New(pool)
}

func TestPostgresUserRoundtrip(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         "Pg Patient",
		Email:        "pg-patient@test.com",
		PasswordHash: "hash",
		Role:         model.RolePatient,
		IsApproved:   true,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.UserByEmail(ctx, "pg-patient@test.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if got.ID != u.ID || got.Role != model.RolePatient || !got.IsApproved {
		t.Errorf("got = %+v", got)
	}

	dup := &model.User{ID: uuid.New().String(), Name: "Dup", Email: u.Email, PasswordHash: "h", Role: model.RolePatient}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate: err = %v, want ErrDuplicate", err)
	}
}

func TestPostgresInviteRedemption(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour)
	doctor := &model.User{
		ID:                uuid.New().String(),
		Name:              "Pg Doctor",
		Email:             "pg-doctor@test.com",
		PasswordHash:      "placeholder",
		Role:              model.RoleDoctor,
		Specialization:    "Cardiology",
		InviteTokenHash:   "pg-digest",
		InviteTokenExpiry: &expiry,
	}
	if err := s.CreateUser(ctx, doctor); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.UserByInviteHash(ctx, "pg-digest"); err != nil {
		t.Fatalf("by hash: %v", err)
	}

	slots := []model.DayAvailability{{Day: "Mon", Slots: []string{"09:00-09:30"}}}
	got, err := s.RedeemInvite(ctx, "pg-digest", "realhash", "555-0101", slots, false)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if got.PasswordHash != "realhash" || got.ContactNumber != "555-0101" {
		t.Errorf("redeemed = %+v", got)
	}
	if len(got.AvailableTimeSlots) != 1 || got.AvailableTimeSlots[0].Day != "Mon" {
		t.Errorf("slots = %+v", got.AvailableTimeSlots)
	}
	if got.InviteTokenHash != "" || got.InviteTokenExpiry != nil {
		t.Error("invite token not cleared")
	}

	if _, err := s.RedeemInvite(ctx, "pg-digest", "again", "", nil, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second redeem: err = %v, want ErrNotFound", err)
	}
}

func TestPostgresFirstAdminOnce(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	a1 := &model.User{ID: uuid.New().String(), Name: "Admin One", Email: "pg-admin1@test.com", PasswordHash: "h"}
	if err := s.CreateFirstAdmin(ctx, a1); err != nil {
		t.Fatalf("first: %v", err)
	}
	a2 := &model.User{ID: uuid.New().String(), Name: "Admin Two", Email: "pg-admin2@test.com", PasswordHash: "h"}
	if err := s.CreateFirstAdmin(ctx, a2); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second: err = %v, want ErrDuplicate", err)
	}
}

func TestPostgresAppointmentFlow(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	patient := &model.User{ID: uuid.New().String(), Name: "Pg Patient", Email: "pg-apt-p@test.com", PasswordHash: "h", Role: model.RolePatient, IsApproved: true}
	doctor := &model.User{ID: uuid.New().String(), Name: "Pg Doctor", Email: "pg-apt-d@test.com", PasswordHash: "h", Role: model.RoleDoctor, IsApproved: true}
	for _, u := range []*model.User{patient, doctor} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	apt := &model.Appointment{
		ID:        uuid.New().String(),
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      date,
		TimeSlot:  "09:00-09:30",
		Reason:    "checkup",
		Status:    model.StatusPending,
	}
	if err := s.CreateAppointment(ctx, apt); err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	got, err := s.AppointmentByID(ctx, apt.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.PatientName != "Pg Patient" || got.DoctorName != "Pg Doctor" {
		t.Errorf("joined names = %q / %q", got.PatientName, got.DoctorName)
	}

	booked, err := s.HasBooking(ctx, doctor.ID, date, "09:00-09:30")
	if err != nil || !booked {
		t.Fatalf("HasBooking = %v, %v; want true", booked, err)
	}

	if _, err := s.UpdateStatus(ctx, apt.ID, model.StatusDeclined, nil, ""); err != nil {
		t.Fatalf("decline: %v", err)
	}
	booked, err = s.HasBooking(ctx, doctor.ID, date, "09:00-09:30")
	if err != nil || booked {
		t.Fatalf("after decline HasBooking = %v, %v; want false", booked, err)
	}

	// FK cascade on user delete
	if err := s.DeleteUser(ctx, patient.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := s.AppointmentByID(ctx, apt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("appointment survived cascade: err = %v", err)
	}
}
