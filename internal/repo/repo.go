package repo

import (
	"context"
	"database/sql"
	"errors"

	"volunteerflow/internal/domain"
)

// Repo provides persistence for all entities. Methods with a Tx suffix run
// against the caller's transaction; the rest use the shared handle.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// execer is the subset of *sql.DB and *sql.Tx the row helpers need, so each
// write can be offered both standalone and inside a caller's transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func insertUser(ctx context.Context, ex execer, u domain.User) (int64, error) {
	res, err := ex.ExecContext(ctx, `INSERT INTO users(email,password_hash,role,full_name,created_at) VALUES (?,?,?,?,?)`,
		u.Email, u.PasswordHash, string(u.Role), u.FullName, u.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) InsertUser(ctx context.Context, u domain.User) (int64, error) {
	return insertUser(ctx, r.DB, u)
}

func (r Repo) InsertUserTx(ctx context.Context, tx *sql.Tx, u domain.User) (int64, error) {
	return insertUser(ctx, tx, u)
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.FullName, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.Role, err = domain.ParseRole(role)
	return u, err
}

func (r Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,email,password_hash,role,full_name,created_at FROM users WHERE id=?`, id))
}

func (r Repo) GetUserTx(ctx context.Context, tx *sql.Tx, id int64) (domain.User, error) {
	return scanUser(tx.QueryRowContext(ctx, `SELECT id,email,password_hash,role,full_name,created_at FROM users WHERE id=?`, id))
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, `SELECT id,email,password_hash,role,full_name,created_at FROM users WHERE email=?`, email))
}

func (r Repo) GetUserByEmailTx(ctx context.Context, tx *sql.Tx, email string) (domain.User, error) {
	return scanUser(tx.QueryRowContext(ctx, `SELECT id,email,password_hash,role,full_name,created_at FROM users WHERE email=?`, email))
}

func (r Repo) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	query := `SELECT id,email,password_hash,role,full_name,created_at FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role=?`
		args = append(args, string(role))
	}
	query += ` ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		var roleStr string
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &roleStr, &u.FullName, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Role, err = domain.ParseRole(roleStr); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func updateUser(ctx context.Context, ex execer, u domain.User) error {
	res, err := ex.ExecContext(ctx, `UPDATE users SET email=?, password_hash=?, role=?, full_name=? WHERE id=?`,
		u.Email, u.PasswordHash, string(u.Role), u.FullName, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) UpdateUser(ctx context.Context, u domain.User) error {
	return updateUser(ctx, r.DB, u)
}

func (r Repo) UpdateUserTx(ctx context.Context, tx *sql.Tx, u domain.User) error {
	return updateUser(ctx, tx, u)
}

func deleteUser(ctx context.Context, ex execer, id int64) error {
	res, err := ex.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteUser(ctx context.Context, id int64) error {
	return deleteUser(ctx, r.DB, id)
}

func (r Repo) DeleteUserTx(ctx context.Context, tx *sql.Tx, id int64) error {
	return deleteUser(ctx, tx, id)
}

func (r Repo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}
