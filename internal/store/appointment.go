package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hospital-management-api/internal/model"
)

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.date, a.time_slot,
	a.reason, a.status, a.rescheduled_date, a.rescheduled_time_slot,
	a.created_at, a.updated_at, p.name, d.name`

const appointmentFrom = ` FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	var reason, reschedSlot *string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.TimeSlot,
		&reason, &a.Status, &a.RescheduledDate, &reschedSlot,
		&a.CreatedAt, &a.UpdatedAt, &a.PatientName, &a.DoctorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reason != nil {
		a.Reason = *reason
	}
	if reschedSlot != nil {
		a.RescheduledTimeSlot = *reschedSlot
	}
	return a, nil
}

func (s *Postgres) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO appointments (id, patient_id, doctor_id, date, time_slot, reason, status)
		 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.TimeSlot, a.Reason, a.Status,
	)
	return err
}

func (s *Postgres) AppointmentByID(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+appointmentFrom+` WHERE a.id = $1`, id))
}

func (s *Postgres) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.list(ctx, `SELECT `+appointmentColumns+appointmentFrom+` ORDER BY a.date, a.time_slot`)
}

func (s *Postgres) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.list(ctx,
		`SELECT `+appointmentColumns+appointmentFrom+` WHERE a.patient_id = $1 ORDER BY a.date, a.time_slot`,
		patientID)
}

func (s *Postgres) ListByDoctor(ctx context.Context, doctorID string) ([]model.Appointment, error) {
	return s.list(ctx,
		`SELECT `+appointmentColumns+appointmentFrom+` WHERE a.doctor_id = $1 ORDER BY a.date, a.time_slot`,
		doctorID)
}

func (s *Postgres) list(ctx context.Context, q string, args ...any) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Postgres) HasBooking(ctx context.Context, doctorID string, date time.Time, slot string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM appointments
		   WHERE doctor_id = $1 AND date = $2 AND time_slot = $3 AND status != 'Declined')`,
		doctorID, date, slot,
	).Scan(&exists)
	return exists, err
}

func (s *Postgres) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, reschedDate *time.Time, reschedSlot string) (*model.Appointment, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments
		 SET status = $2,
		     rescheduled_date = $3,
		     rescheduled_time_slot = NULLIF($4,''),
		     updated_at = NOW()
		 WHERE id = $1`,
		id, status, reschedDate, reschedSlot,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.AppointmentByID(ctx, id)
}

func (s *Postgres) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
