package handler_test

import (
	"net/http"
	"testing"

	"hospital-management-api/internal/model"
)

func TestGetProfile(t *testing.T) {
	router, _, _, _ := setup(t)
	id, token, email := registerPatient(t, router)

	rec, env := do(t, router, http.MethodGet, "/api/v1/users/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}
	var u model.User
	dataField(t, env, &u)
	if u.ID != id || u.Email != email {
		t.Errorf("profile = %+v, want id %s email %s", u, id, email)
	}
}

func TestGetProfileUnauthenticated(t *testing.T) {
	router, _, _, _ := setup(t)
	rec, _ := do(t, router, http.MethodGet, "/api/v1/users/profile", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateProfile(t *testing.T) {
	router, _, _, _ := setup(t)
	_, token, _ := registerPatient(t, router)

	rec, env := do(t, router, http.MethodPut, "/api/v1/users/profile", token, map[string]string{
		"name": "Renamed Patient",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}
	var u model.User
	dataField(t, env, &u)
	if u.Name != "Renamed Patient" {
		t.Errorf("name = %q", u.Name)
	}
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	router, _, _, _ := setup(t)
	_, _, takenEmail := registerPatient(t, router)
	_, token, _ := registerPatient(t, router)

	rec, _ := do(t, router, http.MethodPut, "/api/v1/users/profile", token, map[string]string{
		"email": takenEmail,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestAdminRoutesForbiddenForPatients(t *testing.T) {
	router, st, _, _ := setup(t)
	_, token, _ := registerPatient(t, router)
	doctor := seedDoctor(t, st, nil)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/users/"},
		{http.MethodGet, "/api/v1/users/pending-doctors"},
		{http.MethodDelete, "/api/v1/users/" + doctor.ID},
		{http.MethodPatch, "/api/v1/users/approve-doctor/" + doctor.ID},
		{http.MethodPatch, "/api/v1/users/promote-to-admin/" + doctor.ID},
	}
	for _, p := range paths {
		rec, _ := do(t, router, p.method, p.path, token, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s %s: status = %d, want 403", p.method, p.path, rec.Code)
		}
	}
}

func TestListUsers(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	registerPatient(t, router)
	registerPatient(t, router)

	rec, env := do(t, router, http.MethodGet, "/api/v1/users/", tokenFor(t, cfg, admin.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}
	var users []model.User
	dataField(t, env, &users)
	if len(users) != 3 {
		t.Errorf("len = %d, want 3", len(users))
	}
}

func TestApproveDoctor(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	adminTok := tokenFor(t, cfg, admin.ID)
	pending := seedUser(t, st, model.RoleDoctor, false)

	rec, _ := do(t, router, http.MethodPatch, "/api/v1/users/approve-doctor/"+pending.ID, adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}

	// idempotent
	rec, _ = do(t, router, http.MethodPatch, "/api/v1/users/approve-doctor/"+pending.ID, adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat approve: status %d", rec.Code)
	}

	// surfaces in the approved list
	rec, env := do(t, router, http.MethodGet, "/api/v1/users/approved-doctors", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approved list: status %d", rec.Code)
	}
	var doctors []model.User
	dataField(t, env, &doctors)
	found := false
	for _, d := range doctors {
		if d.ID == pending.ID {
			found = d.IsApproved
		}
	}
	if !found {
		t.Error("approved doctor missing from approved-doctors list")
	}
}

func TestApproveDoctorRejectsNonDoctors(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	patient := seedUser(t, st, model.RolePatient, true)

	rec, _ := do(t, router, http.MethodPatch, "/api/v1/users/approve-doctor/"+patient.ID, tokenFor(t, cfg, admin.ID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestApproveDoctorNotFound(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)

	rec, _ := do(t, router, http.MethodPatch, "/api/v1/users/approve-doctor/no-such-id", tokenFor(t, cfg, admin.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPendingDoctorsList(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	pending := seedUser(t, st, model.RoleDoctor, false)
	seedDoctor(t, st, nil) // approved, must not appear

	rec, env := do(t, router, http.MethodGet, "/api/v1/users/pending-doctors", tokenFor(t, cfg, admin.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}
	var doctors []model.User
	dataField(t, env, &doctors)
	if len(doctors) != 1 || doctors[0].ID != pending.ID {
		t.Errorf("pending = %+v, want exactly %s", doctors, pending.ID)
	}
}

func TestPromoteToAdmin(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	id, token, _ := registerPatient(t, router)

	rec, _ := do(t, router, http.MethodPatch, "/api/v1/users/promote-to-admin/"+id, tokenFor(t, cfg, admin.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}

	// the promoted user can now hit admin routes
	rec, _ = do(t, router, http.MethodGet, "/api/v1/users/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("promoted user list: status %d, want 200", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	router, st, _, cfg := setup(t)
	admin := seedUser(t, st, model.RoleAdmin, true)
	adminTok := tokenFor(t, cfg, admin.ID)
	id, token, _ := registerPatient(t, router)

	rec, _ := do(t, router, http.MethodDelete, "/api/v1/users/"+id, adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d (%s)", rec.Code, rec.Body.String())
	}

	// the deleted user's session no longer resolves
	rec, _ = do(t, router, http.MethodGet, "/api/v1/users/profile", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user profile: status %d, want 401", rec.Code)
	}

	rec, _ = do(t, router, http.MethodDelete, "/api/v1/users/"+id, adminTok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: status %d, want 404", rec.Code)
	}
}
