package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"volunteerflow/internal/audit"
	"volunteerflow/internal/config"
	"volunteerflow/internal/domain"
	"volunteerflow/internal/repo"
)

// Error taxonomy. Wrapped with context at each failure site and matched
// with errors.Is by callers; repo.ErrNotFound covers missing entities.
var (
	ErrInvalidRole         = errors.New("invalid role for operation")
	ErrDuplicateAssignment = errors.New("task already assigned to this volunteer")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrNotOwner            = errors.New("record belongs to a different volunteer")
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Audit  audit.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Audit:  audit.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

const rfc3339Layout = time.RFC3339

func (e Engine) nowRFC3339() string {
	return e.now().UTC().Format(rfc3339Layout)
}

// requireAdmin loads a user and ensures the Admin role.
func (e Engine) requireAdmin(ctx context.Context, userID int64) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		return u, err
	}
	switch u.Role {
	case domain.RoleAdmin:
		return u, nil
	case domain.RoleVolunteer:
		return u, fmt.Errorf("%w: user %d is not an admin", ErrInvalidRole, userID)
	}
	return u, fmt.Errorf("%w: user %d has unknown role", ErrInvalidRole, userID)
}

// requireVolunteer loads a user and ensures the Volunteer role.
func (e Engine) requireVolunteer(ctx context.Context, userID int64) (domain.User, error) {
	u, err := e.Repo.GetUser(ctx, userID)
	if err != nil {
		return u, err
	}
	switch u.Role {
	case domain.RoleVolunteer:
		return u, nil
	case domain.RoleAdmin:
		return u, fmt.Errorf("%w: user %d is not a volunteer", ErrInvalidRole, userID)
	}
	return u, fmt.Errorf("%w: user %d has unknown role", ErrInvalidRole, userID)
}

// UserCreateOptions are parameters for creating a user account.
type UserCreateOptions struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
	ActorID  int64
}

func (e Engine) CreateUser(ctx context.Context, opts UserCreateOptions) (domain.User, error) {
	if strings.TrimSpace(opts.Email) == "" || opts.Password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidArgument)
	}
	if strings.TrimSpace(opts.FullName) == "" {
		return domain.User{}, fmt.Errorf("%w: full name is required", ErrInvalidArgument)
	}
	if _, err := domain.ParseRole(string(opts.Role)); err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), e.bcryptCost())
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Email:        strings.TrimSpace(opts.Email),
		FullName:     strings.TrimSpace(opts.FullName),
		Role:         opts.Role,
		PasswordHash: string(hash),
		CreatedAt:    e.nowRFC3339(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetUserByEmailTx(ctx, tx, u.Email); err == nil {
		return domain.User{}, fmt.Errorf("%w: email already registered", ErrInvalidArgument)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, err
	}
	id, err := e.Repo.InsertUserTx(ctx, tx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	if err := e.Audit.Append(ctx, tx, "user.created", "user", itoa(id), opts.ActorID, audit.Payload{"email": u.Email, "role": u.Role}); err != nil {
		return domain.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UserUpdateOptions carries optional field updates; nil means keep.
type UserUpdateOptions struct {
	ID       int64
	Email    *string
	FullName *string
	Password *string
	ActorID  int64
}

func (e Engine) UpdateUser(ctx context.Context, opts UserUpdateOptions) (domain.User, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer tx.Rollback()
	u, err := e.Repo.GetUserTx(ctx, tx, opts.ID)
	if err != nil {
		return u, err
	}
	if opts.Email != nil {
		if strings.TrimSpace(*opts.Email) == "" {
			return u, fmt.Errorf("%w: email cannot be empty", ErrInvalidArgument)
		}
		u.Email = strings.TrimSpace(*opts.Email)
		if other, err := e.Repo.GetUserByEmailTx(ctx, tx, u.Email); err == nil {
			if other.ID != u.ID {
				return u, fmt.Errorf("%w: email already registered", ErrInvalidArgument)
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return u, err
		}
	}
	if opts.FullName != nil {
		if strings.TrimSpace(*opts.FullName) == "" {
			return u, fmt.Errorf("%w: full name cannot be empty", ErrInvalidArgument)
		}
		u.FullName = strings.TrimSpace(*opts.FullName)
	}
	if opts.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*opts.Password), e.bcryptCost())
		if err != nil {
			return u, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if err := e.Repo.UpdateUserTx(ctx, tx, u); err != nil {
		return u, err
	}
	if err := e.Audit.Append(ctx, tx, "user.updated", "user", itoa(u.ID), opts.ActorID, audit.Payload{}); err != nil {
		return u, err
	}
	if err := tx.Commit(); err != nil {
		return u, err
	}
	return u, nil
}

func (e Engine) DeleteUser(ctx context.Context, id, actorID int64) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteUserTx(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Audit.Append(ctx, tx, "user.deleted", "user", itoa(id), actorID, audit.Payload{}); err != nil {
		return err
	}
	return tx.Commit()
}

// Authenticate verifies credentials and returns the account. Token issuance
// is the transport layer's concern.
func (e Engine) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidArgument)
	}
	u, err := e.Repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (e Engine) bcryptCost() int {
	if e.Config != nil && e.Config.Auth.BcryptCost > 0 {
		return e.Config.Auth.BcryptCost
	}
	return bcrypt.DefaultCost
}

func itoa(id int64) string {
	return fmt.Sprintf("%d", id)
}

func parseRFC3339(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", ErrInvalidArgument, field)
	}
	return t, nil
}
