package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"wastereport/internal/models"
	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAuthorities(ctx context.Context) ([]models.Member, error)
	UpdateUserPassword(ctx context.Context, userID int, newPassword string) error
	EnsureAuthorityUserExists(ctx context.Context, email, password, name string) error
}

// UserService provides methods for user management.
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

var _ UserServiceInterface = (*UserService)(nil)

const userSelectFields = `id, email, password_hash, role, name, created_at`

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

// dummyPasswordHash keeps failed lookups as slow as failed comparisons
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// hashPassword bcrypt-hashes a password, rejecting ones bcrypt would refuse
func hashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", contextutils.WrapErrorf(contextutils.ErrValidationFailed, "password must be at most %d bytes", MaxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to hash password")
	}
	return string(hashed), nil
}

// NewUserServiceWithLogger creates a new UserService instance with logger
func NewUserServiceWithLogger(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.Name, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

// getUserByQuery returns nil, nil when no row matches
func (s *UserService) getUserByQuery(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser registers a user with a bcrypt-hashed password
func (s *UserService) CreateUser(ctx context.Context, email, password, name string, role models.UserRole) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user", attribute.String("user.role", string(role)))
	defer observability.FinishSpan(span, &err)

	email = contextutils.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if role == "" {
		role = models.RoleCitizen
	}

	switch {
	case !contextutils.IsValidEmail(email):
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "a valid email is required")
	case password == "":
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "password is required")
	case name == "":
		return nil, contextutils.WrapError(contextutils.ErrValidationFailed, "name is required")
	case !role.IsValid():
		return nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed, "invalid role %q", role)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, role, name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userSelectFields,
		email, hashedPassword, role, name))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeRecordExists, contextutils.SeverityInfo,
				"Email already exists", email, err)
		}
		return nil, mapWriteError(err, "failed to create user")
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	s.logger.Info(ctx, "User registered", map[string]interface{}{"user_id": user.ID, "role": string(user.Role)})
	return user, nil
}

// AuthenticateUser checks the email and password and returns ErrInvalidCredentials on any mismatch
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user")
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	hash := dummyPasswordHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	if compareErr := bcrypt.CompareHashAndPassword(hash, []byte(password)); compareErr != nil || user == nil {
		span.SetAttributes(attribute.String("auth.result", "invalid_credentials"))
		return nil, contextutils.ErrInvalidCredentials
	}

	span.SetAttributes(observability.AttributeUserID(user.ID), attribute.String("auth.result", "ok"))
	return user, nil
}

// GetUserByID returns the user or ErrRecordNotFound
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	user, err := s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, queryError(err, "failed to get user")
	}
	if user == nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", id)
	}
	return user, nil
}

// GetUserByEmail returns the user or nil when no account uses the email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)

	user, err := s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE email = $1`, contextutils.NormalizeEmail(email))
	if err != nil {
		return nil, queryError(err, "failed to get user by email")
	}
	return user, nil
}

// ListUsers returns every account ordered by id
func (s *UserService) ListUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_users")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY id`)
	if err != nil {
		return nil, queryError(err, "failed to list users")
	}
	defer func() { _ = rows.Close() }()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, queryError(err, "failed to scan user")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating users")
	}
	return users, nil
}

// ListAuthorities returns the members complaints can be assigned to
func (s *UserService) ListAuthorities(ctx context.Context) (result0 []models.Member, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_authorities")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, role FROM users WHERE role = $1 ORDER BY name, id`, models.RoleAuthority)
	if err != nil {
		return nil, queryError(err, "failed to list authorities")
	}
	defer func() { _ = rows.Close() }()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role); err != nil {
			return nil, queryError(err, "failed to scan member")
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError(err, "error iterating members")
	}

	span.SetAttributes(attribute.Int("members.count", len(members)))
	return members, nil
}

// UpdateUserPassword replaces the user's password hash
func (s *UserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if newPassword == "" {
		return contextutils.WrapError(contextutils.ErrValidationFailed, "password is required")
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hashedPassword, userID)
	if err != nil {
		return queryError(err, "failed to update password")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", userID)
	}
	return nil
}

// EnsureAuthorityUserExists inserts the seed authority account unless the email is already taken.
// An existing account is left untouched.
func (s *UserService) EnsureAuthorityUserExists(ctx context.Context, email, password, name string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_authority_user_exists")
	defer observability.FinishSpan(span, &err)

	email = contextutils.NormalizeEmail(email)
	if email == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "authority email cannot be empty")
	}
	if password == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "authority password cannot be empty")
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		email, hashedPassword, models.RoleAuthority, name)
	if err != nil {
		return queryError(err, "failed to seed authority user")
	}

	affected, _ := result.RowsAffected()
	span.SetAttributes(attribute.Bool("seed.inserted", affected > 0))
	if affected > 0 {
		s.logger.Info(ctx, "Seed authority user created", map[string]interface{}{"email": email})
	} else {
		s.logger.Debug(ctx, "Seed authority user already exists")
	}
	return nil
}
