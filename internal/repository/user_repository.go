package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Zorochan404/inf-chat/internal/models"
)

const userColumns = `id, email, password_hash, name, avatar, email_verified, role,
	department, student_id, year, batch, semester,
	professor_id, specialisation, bio, office_hours, subjects,
	is_active, is_online, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, name, avatar, email_verified, role,
			department, student_id, year, batch, semester,
			professor_id, specialisation, bio, office_hours, subjects,
			is_active, is_online, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			TRUE, FALSE, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.AvatarURL,
		user.EmailVerified,
		string(user.Role),
		user.Department,
		user.StudentID,
		user.Year,
		user.Batch,
		user.Semester,
		user.ProfessorID,
		nonNil(user.Specialisation),
		user.Bio,
		user.OfficeHours,
		nonNil(user.Subjects),
	)
	return translate(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// FindByEmail looks a user up by email. An empty role matches any role.
func (r *UserRepository) FindByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error) {
	if role == "" {
		query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
		return scanUser(r.db.QueryRow(ctx, query, email))
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND role = $2`
	return scanUser(r.db.QueryRow(ctx, query, email, string(role)))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, fields models.ProfileFields) (models.User, error) {
	var updated models.User
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
		user, err := scanUser(tx.QueryRow(ctx, query, id))
		if err != nil {
			return err
		}
		fields.Apply(&user)

		const update = `
			UPDATE users SET
				name = $2, avatar = $3, department = $4, student_id = $5, year = $6,
				batch = $7, semester = $8, professor_id = $9, specialisation = $10,
				bio = $11, office_hours = $12, subjects = $13, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, update,
			user.ID,
			user.Name,
			user.AvatarURL,
			user.Department,
			user.StudentID,
			user.Year,
			user.Batch,
			user.Semester,
			user.ProfessorID,
			nonNil(user.Specialisation),
			user.Bio,
			user.OfficeHours,
			nonNil(user.Subjects),
		).Scan(&user.UpdatedAt); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
}

func (r *UserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name ASC`, string(role))
}

func (r *UserRepository) ListBySemester(ctx context.Context, semester string) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE semester = $1 ORDER BY name ASC`, semester)
}

// ListStudentsByDepartmentPrefix matches students whose department, with all
// whitespace removed and lowercased, starts with prefix. The caller is expected
// to normalise prefix the same way.
func (r *UserRepository) ListStudentsByDepartmentPrefix(ctx context.Context, prefix string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE role = 'student'
		  AND lower(regexp_replace(department, '\s+', '', 'g')) LIKE $1 ESCAPE '\'
		ORDER BY name ASC`
	return r.list(ctx, query, escapeLike(prefix)+"%")
}

func (r *UserRepository) SetOnline(ctx context.Context, id string, online bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET is_online = $2, updated_at = NOW() WHERE id = $1`, id, online)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListOnlineIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE is_online`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user models.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.AvatarURL,
		&user.EmailVerified,
		&role,
		&user.Department,
		&user.StudentID,
		&user.Year,
		&user.Batch,
		&user.Semester,
		&user.ProfessorID,
		&user.Specialisation,
		&user.Bio,
		&user.OfficeHours,
		&user.Subjects,
		&user.IsActive,
		&user.IsOnline,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.UserRole(role)
	return user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
