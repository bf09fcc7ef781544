package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/config"
	"hospital-management-api/internal/handler"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

// fakeMailer records outbound mail and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (f *fakeMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no email sent")
	}
	return f.sent[len(f.sent)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		SessionExpiry: time.Hour,
		FrontendURL:   "http://localhost:3000",
		InviteExpiry:  24 * time.Hour,
	}
}

func setup(t *testing.T) (http.Handler, *store.Memory, *fakeMailer, *config.Config) {
	t.Helper()
	mem := store.NewMemory()
	mailer := &fakeMailer{}
	cfg := testConfig()
	router := handler.NewRouter(&handler.RouterDeps{
		Store:  mem,
		Mailer: mailer,
		Config: cfg,
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	return router, mem, mailer, cfg
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if len(rec.Body.Bytes()) > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func dataField(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v (data: %s)", err, string(env.Data))
	}
}

// seedUser inserts a user directly into the store.
func seedUser(t *testing.T, st *store.Memory, role model.Role, approved bool) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Name:         "Seed " + string(role),
		Email:        fmt.Sprintf("seed-%s@test.com", uuid.New().String()[:8]),
		PasswordHash: "not-a-real-hash",
		Role:         role,
		IsApproved:   approved,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedDoctor(t *testing.T, st *store.Memory, slots []model.DayAvailability) *model.User {
	t.Helper()
	u := &model.User{
		ID:                 uuid.New().String(),
		Name:               "Dr Seed",
		Email:              fmt.Sprintf("doctor-%s@test.com", uuid.New().String()[:8]),
		PasswordHash:       "not-a-real-hash",
		Role:               model.RoleDoctor,
		IsApproved:         true,
		AvailableTimeSlots: slots,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	return u
}

func tokenFor(t *testing.T, cfg *config.Config, userID string) string {
	t.Helper()
	tok, err := auth.MakeToken(userID, cfg.JWTSecret, cfg.SessionExpiry)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	return tok
}

func registerPatient(t *testing.T, router http.Handler) (id, token, email string) {
	t.Helper()
	email = fmt.Sprintf("patient-%s@test.com", uuid.New().String()[:8])
	rec, env := do(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Test Patient", "email": email, "password": "testpass123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d (%s)", rec.Code, rec.Body.String())
	}
	var data struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	dataField(t, env, &data)
	return data.User.ID, data.Token, email
}

func TestHealth(t *testing.T) {
	router, _, _, _ := setup(t)
	rec, env := do(t, router, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !env.Success {
		t.Fatal("expected success")
	}
}
