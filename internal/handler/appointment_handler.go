package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

type createAppointmentRequest struct {
	Doctor   string `json:"doctor"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Reason   string `json:"reason"`
}

// slotDeclared reports whether the slot is in the doctor's declared
// availability for the appointment's weekday. Doctors with no declared
// availability accept any slot.
func slotDeclared(doctor *model.User, date time.Time, slot string) bool {
	if len(doctor.AvailableTimeSlots) == 0 {
		return true
	}
	weekday := date.Weekday().String()[:3]
	for _, day := range doctor.AvailableTimeSlots {
		d := strings.TrimSpace(day.Day)
		if len(d) < 3 || !strings.EqualFold(d[:3], weekday) {
			continue
		}
		for _, s := range day.Slots {
			if s == slot {
				return true
			}
		}
	}
	return false
}

// CreateAppointment books the caller with a doctor. The doctor must be
// approved, the slot must be within declared availability, and the
// (doctor, date, slot) must not already carry a non-declined booking.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		fail(w, err)
		return
	}

	var req createAppointmentRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Doctor == "" || req.Date == "" || req.TimeSlot == "" {
		fail(w, model.ValidationError("doctor, date and timeSlot are required"))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		fail(w, err)
		return
	}

	doctor, err := h.store.UserByID(r.Context(), req.Doctor)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.ValidationError("doctor not available for booking"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	if doctor.Role != model.RoleDoctor || !doctor.IsApproved {
		fail(w, model.ValidationError("doctor not available for booking"))
		return
	}
	if !slotDeclared(doctor, date, req.TimeSlot) {
		fail(w, model.ValidationError("time slot is outside the doctor's availability"))
		return
	}

	booked, err := h.store.HasBooking(r.Context(), doctor.ID, date, req.TimeSlot)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	if booked {
		fail(w, model.ConflictError("time slot already booked"))
		return
	}

	apt := &model.Appointment{
		ID:        uuid.New().String(),
		PatientID: u.ID,
		DoctorID:  doctor.ID,
		Date:      date,
		TimeSlot:  req.TimeSlot,
		Reason:    req.Reason,
		Status:    model.StatusPending,
	}
	if err := h.store.CreateAppointment(r.Context(), apt); err != nil {
		fail(w, model.InternalError(err))
		return
	}
	apt.PatientName = u.Name
	apt.DoctorName = doctor.Name

	writeSuccess(w, http.StatusCreated, "appointment created successfully",
		map[string]any{"appointment": apt})
}

func (h *Handler) ListAllAppointments(w http.ResponseWriter, r *http.Request) {
	apts, err := h.store.ListAppointments(r.Context())
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "appointments retrieved successfully",
		map[string]any{"appointments": apts})
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	apt, err := h.store.AppointmentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("appointment not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "appointment retrieved successfully",
		map[string]any{"appointment": apt})
}

// ListMine scopes by the caller's role: patients see their bookings,
// doctors their schedule.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		fail(w, err)
		return
	}

	var apts []model.Appointment
	switch u.Role {
	case model.RolePatient:
		apts, err = h.store.ListByPatient(r.Context(), u.ID)
	case model.RoleDoctor:
		apts, err = h.store.ListByDoctor(r.Context(), u.ID)
	default:
		fail(w, model.ForbiddenError("unauthorized to view appointments"))
		return
	}
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "appointments retrieved successfully",
		map[string]any{"appointments": apts})
}

type updateStatusRequest struct {
	Status              string `json:"status"`
	RescheduledDate     string `json:"rescheduledDate"`
	RescheduledTimeSlot string `json:"rescheduledTimeSlot"`
}

// UpdateAppointmentStatus transitions an appointment out of Pending.
// Pending itself is never a valid target.
func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	status, ok := model.ParseUpdateStatus(req.Status)
	if !ok {
		fail(w, model.ValidationError("invalid status value"))
		return
	}

	var reschedDate *time.Time
	reschedSlot := ""
	if status == model.StatusRescheduled {
		if req.RescheduledDate != "" {
			d, err := parseDate(req.RescheduledDate)
			if err != nil {
				fail(w, err)
				return
			}
			reschedDate = &d
		}
		reschedSlot = req.RescheduledTimeSlot
	}

	apt, err := h.store.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, reschedDate, reschedSlot)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("appointment not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "appointment status updated successfully",
		map[string]any{"appointment": apt})
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAppointment(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("appointment not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "appointment deleted successfully", nil)
}
