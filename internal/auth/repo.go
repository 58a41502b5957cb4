package auth

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type Repo struct{ DB *pgxpool.Pool }

const userColumns = `id, uuid, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.UUID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = Role(role)
	return u, err
}

func (r *Repo) CreateUser(ctx context.Context, u *User) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(uuid, name, email, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		u.UUID, u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return errors.Wrap(err, "insert user")
}

func (r *Repo) UserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if postgres.IsNoRows(err) {
		return User{}, ErrUserNotFound
	}
	return u, errors.Wrap(err, "select user by email")
}

func (r *Repo) UserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if postgres.IsNoRows(err) {
		return User{}, ErrUserNotFound
	}
	return u, errors.Wrap(err, "select user by id")
}

func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) SetRole(ctx context.Context, userID int64, role Role) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`, userID, string(role))
	return errors.Wrap(err, "update role")
}

func (r *Repo) InsertToken(ctx context.Context, t Token) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO access_tokens(id, user_id, expires_at) VALUES ($1,$2,$3)`,
		t.ID, t.UserID, t.ExpiresAt)
	return errors.Wrap(err, "insert token")
}

// ReplaceTokens drops every token of the user and stores t in one transaction.
func (r *Repo) ReplaceTokens(ctx context.Context, t Token) error {
	return postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM access_tokens WHERE user_id=$1`, t.UserID); err != nil {
			return errors.Wrap(err, "delete tokens")
		}
		_, err := tx.Exec(ctx, `INSERT INTO access_tokens(id, user_id, expires_at) VALUES ($1,$2,$3)`,
			t.ID, t.UserID, t.ExpiresAt)
		return errors.Wrap(err, "insert token")
	})
}

func (r *Repo) TokenByID(ctx context.Context, id uuid.UUID) (Token, error) {
	var t Token
	err := r.DB.QueryRow(ctx, `SELECT id, user_id, expires_at FROM access_tokens WHERE id=$1`, id).
		Scan(&t.ID, &t.UserID, &t.ExpiresAt)
	if postgres.IsNoRows(err) {
		return Token{}, ErrTokenNotFound
	}
	return t, errors.Wrap(err, "select token")
}

func (r *Repo) DeleteToken(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM access_tokens WHERE id=$1`, id)
	return errors.Wrap(err, "delete token")
}
