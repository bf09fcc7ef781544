package model

import (
	"strings"
	"time"
)

// Role is the closed set of user roles. Parsing is case-insensitive;
// anything outside the set is rejected at the boundary.
type Role string

const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
	RoleAdmin   Role = "Admin"
)

// ParseRole normalizes a role string. The legacy system mixed "Admin"
// and "admin" across revisions, so casing is ignored.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "patient":
		return RolePatient, true
	case "doctor":
		return RoleDoctor, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// AppointmentStatus is the appointment state machine's state set.
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "Pending"
	StatusAccepted    AppointmentStatus = "Accepted"
	StatusDeclined    AppointmentStatus = "Declined"
	StatusRescheduled AppointmentStatus = "Rescheduled"
)

// ParseUpdateStatus accepts only the valid targets of a status update.
// Pending is the creation state, never a transition target.
func ParseUpdateStatus(s string) (AppointmentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accepted":
		return StatusAccepted, true
	case "declined":
		return StatusDeclined, true
	case "rescheduled":
		return StatusRescheduled, true
	}
	return "", false
}

// DayAvailability is one weekday's bookable slots, each formatted
// "HH:MM-HH:MM". Duplicate weekdays are allowed but not meaningful.
type DayAvailability struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsApproved   bool   `json:"isApproved"`

	// Doctor-only fields.
	Specialization     string            `json:"specialization,omitempty"`
	ContactNumber      string            `json:"contactNumber,omitempty"`
	AvailableTimeSlots []DayAvailability `json:"availableTimeSlots,omitempty"`

	// Set only while a doctor invite is outstanding. The raw token is
	// never persisted, only its digest.
	InviteTokenHash   string     `json:"-"`
	InviteTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Appointment struct {
	ID                  string            `json:"id"`
	PatientID           string            `json:"patient"`
	DoctorID            string            `json:"doctor"`
	Date                time.Time         `json:"date"`
	TimeSlot            string            `json:"timeSlot"`
	Reason              string            `json:"reason,omitempty"`
	Status              AppointmentStatus `json:"status"`
	RescheduledDate     *time.Time        `json:"rescheduledDate,omitempty"`
	RescheduledTimeSlot string            `json:"rescheduledTimeSlot,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`

	// Joined display names, populated on reads.
	PatientName string `json:"patientName,omitempty"`
	DoctorName  string `json:"doctorName,omitempty"`
}
