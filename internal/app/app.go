// Package app wires the workspace together: database, migrations, config
// and first-run seeding.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"volunteerflow/internal/config"
	"volunteerflow/internal/db"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/engine"
	"volunteerflow/internal/migrate"
)

// Open prepares the workspace database and loads config. The returned
// engine is ready for use; the caller owns closing the *sql.DB.
func Open(workspace string) (*sql.DB, engine.Engine, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, engine.Engine{}, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, engine.Engine{}, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, engine.Engine{}, fmt.Errorf("migrate: %w", err)
	}
	return conn, engine.New(conn, cfg), nil
}

// SeedAccount describes one account created by Seed.
type SeedAccount struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// SeedAccounts are the first-run fixtures, created only on an empty database.
var SeedAccounts = []SeedAccount{
	{Email: "admin@example.com", Password: "Admin123!", FullName: "System Admin", Role: "Admin"},
	{Email: "volunteer1@example.com", Password: "Volunteer123!", FullName: "Alice Johnson", Role: "Volunteer"},
	{Email: "volunteer2@example.com", Password: "Volunteer123!", FullName: "Bob Smith", Role: "Volunteer"},
}

// Seed creates the default accounts when the users table is empty. It is a
// no-op otherwise, so running init twice is safe.
func Seed(ctx context.Context, eng engine.Engine) ([]SeedAccount, error) {
	n, err := eng.Repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	for _, acct := range SeedAccounts {
		if _, err := eng.CreateUser(ctx, engine.UserCreateOptions{
			Email:    acct.Email,
			Password: acct.Password,
			FullName: acct.FullName,
			Role:     roleOf(acct.Role),
		}); err != nil {
			return nil, fmt.Errorf("seed %s: %w", acct.Email, err)
		}
	}
	return SeedAccounts, nil
}

func roleOf(s string) domain.Role {
	r, err := domain.ParseRole(s)
	if err != nil {
		return domain.RoleVolunteer
	}
	return r
}
