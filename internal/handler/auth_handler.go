package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/notify"
	"hospital-management-api/internal/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles patient self-registration. The store's unique email
// index is the backstop against concurrent duplicates.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		fail(w, model.ValidationError("all fields are required"))
		return
	}
	if err := validateName(req.Name); err != nil {
		fail(w, err)
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		fail(w, err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		fail(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RolePatient,
		IsApproved:   true,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(w, model.ConflictError("user already exists"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	tok, err := auth.MakeToken(u.ID, h.cfg.JWTSecret, h.cfg.SessionExpiry)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	h.setSessionCookie(w, tok)
	writeSuccess(w, http.StatusCreated, "user has been successfully registered",
		map[string]any{"token": tok, "user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login never distinguishes an unknown email from a wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		fail(w, model.ValidationError("email and password are required"))
		return
	}

	// stored lowercased at registration; match the same form
	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := h.store.UserByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		fail(w, model.UnauthorizedError("invalid email or password"))
		return
	}

	tok, err := auth.MakeToken(u.ID, h.cfg.JWTSecret, h.cfg.SessionExpiry)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	h.setSessionCookie(w, tok)
	writeSuccess(w, http.StatusOK, "user signed in successfully",
		map[string]any{"token": tok, "user": u})
}

type inviteDoctorRequest struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// InviteDoctor starts doctor onboarding: a placeholder Doctor record
// plus an emailed single-use invite link. If the email cannot be sent
// the record is rolled back so no orphaned invite remains.
func (h *Handler) InviteDoctor(w http.ResponseWriter, r *http.Request) {
	var req inviteDoctorRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Email == "" || req.Name == "" || req.Specialization == "" {
		fail(w, model.ValidationError("email, name, and specialization are required"))
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		fail(w, err)
		return
	}
	if err := validateName(req.Name); err != nil {
		fail(w, err)
		return
	}

	plainToken, tokenHash, err := auth.GenerateInviteToken()
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}

	// Placeholder credential, superseded at invite completion. The
	// raw value is discarded; nobody can log in with it.
	placeholder, err := auth.HashPassword(uuid.New().String())
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}

	expiry := time.Now().Add(h.cfg.InviteExpiry)
	doctor := &model.User{
		ID:                uuid.New().String(),
		Name:              req.Name,
		Email:             email,
		PasswordHash:      placeholder,
		Role:              model.RoleDoctor,
		IsApproved:        false,
		Specialization:    req.Specialization,
		InviteTokenHash:   tokenHash,
		InviteTokenExpiry: &expiry,
	}
	if err := h.store.CreateUser(r.Context(), doctor); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(w, model.ConflictError("user with this email already exists"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	inviteLink := h.cfg.FrontendURL + "/register/doctor?token=" + plainToken
	subject, body := notify.RenderInvite(req.Name, inviteLink)
	if err := h.mailer.SendEmail(r.Context(), email, subject, body); err != nil {
		// fail closed: no email means no usable invite. The rollback
		// must run even when the send failed because the client went
		// away and canceled the request context.
		if delErr := h.store.DeleteUser(context.WithoutCancel(r.Context()), doctor.ID); delErr != nil {
			fail(w, model.InternalError(errors.Join(err, delErr)))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	writeSuccess(w, http.StatusCreated, "doctor invitation sent successfully",
		map[string]any{"doctor": map[string]any{
			"id":             doctor.ID,
			"name":           doctor.Name,
			"email":          doctor.Email,
			"specialization": doctor.Specialization,
		}})
}

// VerifyInvite is the read-only invite link check. It never mutates
// state.
func (h *Handler) VerifyInvite(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		fail(w, model.ValidationError("token is required"))
		return
	}

	doctor, err := h.store.UserByInviteHash(r.Context(), auth.HashInviteToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("invalid or expired invite token"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	writeSuccess(w, http.StatusOK, "token verified successfully",
		map[string]any{"email": doctor.Email, "name": doctor.Name})
}

type completeRegistrationRequest struct {
	Token              string                  `json:"token"`
	Password           string                  `json:"password"`
	ContactNumber      string                  `json:"contactNumber"`
	AvailableTimeSlots []model.DayAvailability `json:"availableTimeSlots"`
}

// CompleteRegistration redeems the invite token (single-use), sets the
// doctor's real credentials and availability, and logs them in.
func (h *Handler) CompleteRegistration(w http.ResponseWriter, r *http.Request) {
	var req completeRegistrationRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Token == "" || req.Password == "" {
		fail(w, model.ValidationError("token and password are required"))
		return
	}
	if err := validatePassword(req.Password); err != nil {
		fail(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}

	doctor, err := h.store.RedeemInvite(r.Context(), auth.HashInviteToken(req.Token),
		hash, req.ContactNumber, req.AvailableTimeSlots, h.cfg.AutoApproveDoctors)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("invalid or expired invite token"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	tok, err := auth.MakeToken(doctor.ID, h.cfg.JWTSecret, h.cfg.SessionExpiry)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	h.setSessionCookie(w, tok)
	writeSuccess(w, http.StatusOK, "doctor registration completed successfully",
		map[string]any{"token": tok, "user": doctor})
}

type createFirstAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateFirstAdmin bootstraps the first admin. The store makes the
// existence check and insert one atomic step; once any admin exists
// this always conflicts.
func (h *Handler) CreateFirstAdmin(w http.ResponseWriter, r *http.Request) {
	var req createFirstAdminRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		fail(w, model.ValidationError("all fields are required"))
		return
	}
	if err := validateName(req.Name); err != nil {
		fail(w, err)
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		fail(w, err)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		fail(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}

	admin := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsApproved:   true,
	}
	if err := h.store.CreateFirstAdmin(r.Context(), admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(w, model.ConflictError("admin already exists"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}

	tok, err := auth.MakeToken(admin.ID, h.cfg.JWTSecret, h.cfg.SessionExpiry)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	h.setSessionCookie(w, tok)
	writeSuccess(w, http.StatusCreated, "first admin created successfully",
		map[string]any{"token": tok, "user": admin})
}
