package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hospital-management-api/internal/model"
)

const userColumns = `id, name, email, password_hash, role, is_approved,
	specialization, contact_number, available_time_slots,
	invite_token_hash, invite_token_expires_at, created_at, updated_at`

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func slotsJSON(slots []model.DayAvailability) ([]byte, error) {
	if slots == nil {
		return nil, nil
	}
	return json.Marshal(slots)
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var (
		spec, contact, inviteHash *string
		slots                     []byte
		inviteExp                 *time.Time
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsApproved,
		&spec, &contact, &slots, &inviteHash, &inviteExp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if spec != nil {
		u.Specialization = *spec
	}
	if contact != nil {
		u.ContactNumber = *contact
	}
	if inviteHash != nil {
		u.InviteTokenHash = *inviteHash
	}
	u.InviteTokenExpiry = inviteExp
	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &u.AvailableTimeSlots); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	slots, err := slotsJSON(u.AvailableTimeSlots)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_approved,
		   specialization, contact_number, available_time_slots,
		   invite_token_hash, invite_token_expires_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),NULLIF($8,''),$9,NULLIF($10,''),$11)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsApproved,
		u.Specialization, u.ContactNumber, slots,
		u.InviteTokenHash, u.InviteTokenExpiry,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// CreateFirstAdmin is an insert-if-no-admin-exists, done in a single
// statement so two concurrent bootstraps cannot both succeed.
func (s *Postgres) CreateFirstAdmin(ctx context.Context, u *model.User) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_approved)
		 SELECT $1, $2, $3, $4, 'Admin', true
		 WHERE NOT EXISTS (SELECT 1 FROM users WHERE role = 'Admin')`,
		u.ID, u.Name, u.Email, u.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

func (s *Postgres) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Postgres) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Postgres) UserByInviteHash(ctx context.Context, hash string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE invite_token_hash = $1 AND invite_token_expires_at > NOW()`, hash))
}

func (s *Postgres) RedeemInvite(ctx context.Context, hash, passwordHash, contactNumber string, slots []model.DayAvailability, approve bool) (*model.User, error) {
	slotsB, err := slotsJSON(slots)
	if err != nil {
		return nil, err
	}
	// Match and clear in one statement: single-use by construction.
	return scanUser(s.pool.QueryRow(ctx,
		`UPDATE users
		 SET password_hash = $2,
		     contact_number = COALESCE(NULLIF($3,''), contact_number),
		     available_time_slots = COALESCE($4, available_time_slots),
		     is_approved = is_approved OR $5,
		     invite_token_hash = NULL,
		     invite_token_expires_at = NULL,
		     updated_at = NOW()
		 WHERE invite_token_hash = $1 AND invite_token_expires_at > NOW()
		 RETURNING `+userColumns,
		hash, passwordHash, contactNumber, slotsB, approve))
}

func (s *Postgres) UpdateProfile(ctx context.Context, id, name, email string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE(NULLIF($2,''), name),
		     email = COALESCE(NULLIF($3,''), email),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, email))
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return u, err
}

func (s *Postgres) SetApproved(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_approved = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) PromoteToAdmin(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET role = 'Admin', is_approved = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (s *Postgres) ListDoctors(ctx context.Context, approved bool) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'Doctor' AND is_approved = $1 ORDER BY name`, approved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
