package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

// caller returns the authenticated user resolved by the auth gate.
func caller(r *http.Request) (*model.User, error) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, model.UnauthorizedError("unauthorized: no token provided")
	}
	return u, nil
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "user profile retrieved", u)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, err := caller(r)
	if err != nil {
		fail(w, err)
		return
	}
	var req updateProfileRequest
	if err := decode(r, &req); err != nil {
		fail(w, err)
		return
	}
	if req.Name != "" {
		if err := validateName(req.Name); err != nil {
			fail(w, err)
			return
		}
	}
	email := ""
	if req.Email != "" {
		email, err = normalizeEmail(req.Email)
		if err != nil {
			fail(w, err)
			return
		}
	}

	updated, err := h.store.UpdateProfile(r.Context(), u.ID, req.Name, email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			fail(w, model.NotFoundError("user not found"))
		case errors.Is(err, store.ErrDuplicate):
			fail(w, model.ConflictError("email already in use"))
		default:
			fail(w, model.InternalError(err))
		}
		return
	}
	writeSuccess(w, http.StatusOK, "user profile updated", updated)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "all users retrieved", users)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("user not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "user deleted successfully", nil)
}

// ApproveDoctor flips the approval flag. Approving an already approved
// doctor is a no-op success.
func (h *Handler) ApproveDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorId")

	target, err := h.store.UserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("doctor not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	if target.Role != model.RoleDoctor {
		fail(w, model.ValidationError("user is not a doctor"))
		return
	}

	if err := h.store.SetApproved(r.Context(), id); err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "doctor approved successfully", nil)
}

func (h *Handler) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userId")
	if err := h.store.PromoteToAdmin(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(w, model.NotFoundError("user not found"))
			return
		}
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "user promoted to admin", nil)
}

func (h *Handler) ListPendingDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.store.ListDoctors(r.Context(), false)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "pending doctors retrieved", doctors)
}

// ListApprovedDoctors is the patient-facing booking candidate list.
func (h *Handler) ListApprovedDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.store.ListDoctors(r.Context(), true)
	if err != nil {
		fail(w, model.InternalError(err))
		return
	}
	writeSuccess(w, http.StatusOK, "approved doctors retrieved", doctors)
}
