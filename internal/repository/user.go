package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// userColumns excludes password_hash. Only the WithPassword lookups read it.
const userColumns = `id, email, name, role, email_verified_at, email_verification_token,
	avatar, phone, address, personal_info, regulatory_info, settings,
	id_front_image, id_back_image, verification_qr_code, verification_qr_issued_at,
	created_at, updated_at`

// summaryColumns feeds the admin table. The image columns can hold inline
// data URIs of several megabytes, so only their presence is selected.
const summaryColumns = `id, email, name, role, email_verified_at,
	(id_front_image <> '' AND id_back_image <> '') AS identity_verified,
	created_at`

// UserUpdate lists the column groups a single write may touch.
// Nil fields are left unchanged.
type UserUpdate struct {
	Name           *string
	Email          *string
	Avatar         *string
	Phone          *string
	Address        *model.Address
	PersonalInfo   *model.PersonalInfo
	RegulatoryInfo *model.RegulatoryInfo
	Settings       *model.Settings
	IDFrontImage   *string
	IDBackImage    *string
}

// ListParams filters and pages the admin user table.
type ListParams struct {
	Search string
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByIDWithPassword(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByEmailWithPassword(ctx context.Context, email string) (*model.User, error)
	ByVerificationToken(ctx context.Context, token string) (*model.User, error)
	ByHandoffToken(ctx context.Context, token string) (*model.User, error)
	Role(ctx context.Context, id string) (string, error)
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	SetHandoffToken(ctx context.Context, id, token string, now time.Time, staleBefore *time.Time) (bool, error)
	Update(ctx context.Context, id string, update UserUpdate) error
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListParams) ([]*model.UserSummary, int, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, name, password_hash, role, email_verification_token, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role,
		user.EmailVerificationToken, user.Settings, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByIDWithPassword(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByEmailWithPassword(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+`, password_hash FROM users WHERE email = $1`, email)
}

func (r *userRepository) ByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email_verification_token = $1`, token)
}

func (r *userRepository) ByHandoffToken(ctx context.Context, token string) (*model.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE verification_qr_code = $1`, token)
}

func (r *userRepository) get(ctx context.Context, query string, args ...any) (*model.User, error) {
	user := &model.User{}

	err := r.db.GetContext(ctx, user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Role reads the current role straight from the store.
func (r *userRepository) Role(ctx context.Context, id string) (string, error) {
	var role string

	err := r.db.GetContext(ctx, &role, `SELECT role FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}

	return role, err
}

// MarkEmailVerified stamps the verification time and consumes the token.
func (r *userRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET email_verified_at = $1, email_verification_token = NULL, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, at, at, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// SetHandoffToken stores token only when the user has none, or when the
// existing one was issued before staleBefore. Concurrent callers race on a
// single conditional write; the loser gets false and must re-read.
func (r *userRepository) SetHandoffToken(ctx context.Context, id, token string, now time.Time, staleBefore *time.Time) (bool, error) {
	var (
		result sql.Result
		err    error
	)

	if staleBefore == nil {
		query := `UPDATE users SET verification_qr_code = $1, verification_qr_issued_at = $2, updated_at = $3
			WHERE id = $4 AND verification_qr_code IS NULL`
		result, err = r.db.ExecContext(ctx, query, token, now, now, id)
	} else {
		query := `UPDATE users SET verification_qr_code = $1, verification_qr_issued_at = $2, updated_at = $3
			WHERE id = $4 AND (verification_qr_code IS NULL OR verification_qr_issued_at < $5)`
		result, err = r.db.ExecContext(ctx, query, token, now, now, id, *staleBefore)
	}
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Update writes only the column groups set in update, plus updated_at.
func (r *userRepository) Update(ctx context.Context, id string, update UserUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		set("name", *update.Name)
	}
	if update.Email != nil {
		set("email", *update.Email)
	}
	if update.Avatar != nil {
		set("avatar", *update.Avatar)
	}
	if update.Phone != nil {
		set("phone", *update.Phone)
	}
	if update.Address != nil {
		set("address", *update.Address)
	}
	if update.PersonalInfo != nil {
		set("personal_info", *update.PersonalInfo)
	}
	if update.RegulatoryInfo != nil {
		set("regulatory_info", *update.RegulatoryInfo)
	}
	if update.Settings != nil {
		set("settings", *update.Settings)
	}
	if update.IDFrontImage != nil {
		set("id_front_image", *update.IDFrontImage)
	}
	if update.IDBackImage != nil {
		set("id_back_image", *update.IDBackImage)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return expectRow(result)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func (r *userRepository) UpdateRole(ctx context.Context, id, role string) error {
	query := `UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, role, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// List returns one page of users, newest first, and the total match count.
// Search matches name or email case-insensitively.
func (r *userRepository) List(ctx context.Context, params ListParams) ([]*model.UserSummary, int, error) {
	where := ""
	var args []any
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		where = ` WHERE LOWER(name) LIKE $1 ESCAPE '\' OR LOWER(email) LIKE $2 ESCAPE '\'`
		args = append(args, pattern, pattern)
	}

	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		summaryColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	users := []*model.UserSummary{}
	err = r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func expectRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// isUniqueViolation works for both SQLite and PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
