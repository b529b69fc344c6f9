package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/db"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var _ UserStore = (*Users)(nil)

const userColumns = `id, email, password, full_name, role, created_at, updated_at`

type Users struct {
	db *db.DB
}

func NewUsers(conn *db.DB) *Users {
	return &Users{db: conn}
}

func (s *Users) Create(ctx context.Context, u *model.User) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FullName, string(u.Role),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", db.Classify(err))
	}
	return nil
}

func (s *Users) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id))
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, db.Classify(err))
	}
	return u, nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`), strings.ToLower(email)))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", db.Classify(err))
	}
	return u, nil
}

func (s *Users) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Users) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Users) Update(ctx context.Context, u *model.User) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET email = ?, password = ?, full_name = ?, role = ?, updated_at = ? WHERE id = ?`),
		strings.ToLower(u.Email), u.PasswordHash, u.FullName, string(u.Role), u.UpdatedAt.UTC(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, db.Classify(err))
	}
	return expectOne(res, "update user", u.ID.String())
}

func (s *Users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, db.Classify(err))
	}
	return expectOne(res, "delete user", id.String())
}

func scanUser(r rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := r.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
