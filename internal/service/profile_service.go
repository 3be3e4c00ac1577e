package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/ids"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
	"github.com/Zorochan404/inf-chat/internal/security"
)

type ProfileService struct {
	users UserStore
	log   zerolog.Logger
}

func NewProfileService(users UserStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, log: log}
}

type Directory struct {
	Admin    []models.User
	Teacher  []models.User
	Students []models.User
}

func (s *ProfileService) MyProfile(ctx context.Context, caller security.Identity) (models.User, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return models.User{}, userError(err)
	}
	return user, nil
}

// EditProfile updates profile fields only; email, role and password are not
// reachable through ProfileFields.
func (s *ProfileService) EditProfile(ctx context.Context, caller security.Identity, fields models.ProfileFields) (models.User, error) {
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return models.User{}, apperr.Validation("Name cannot be blank", apperr.FieldError{Field: "name", Message: "name cannot be blank"})
		}
		fields.Name = &name
	}

	user, err := s.users.UpdateProfile(ctx, caller.UserID, fields)
	if err != nil {
		return models.User{}, userError(err)
	}
	return user, nil
}

func (s *ProfileService) DeleteProfile(ctx context.Context, caller security.Identity) error {
	if err := s.users.Delete(ctx, caller.UserID); err != nil {
		return userError(err)
	}
	s.log.Info().Str("user_id", caller.UserID).Msg("profile deleted")
	return nil
}

func (s *ProfileService) GetAllUsers(ctx context.Context, caller security.Identity) (Directory, error) {
	if err := requireStaff(caller); err != nil {
		return Directory{}, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return Directory{}, apperr.Internal("Internal server error", err)
	}

	dir := Directory{Admin: []models.User{}, Teacher: []models.User{}, Students: []models.User{}}
	for _, u := range users {
		switch u.Role {
		case models.RoleAdmin:
			dir.Admin = append(dir.Admin, u)
		case models.RoleTeacher:
			dir.Teacher = append(dir.Teacher, u)
		case models.RoleStudent:
			dir.Students = append(dir.Students, u)
		}
	}
	return dir, nil
}

func (s *ProfileService) GetBySemester(ctx context.Context, caller security.Identity, semester string) ([]models.User, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	semester = strings.TrimSpace(semester)
	if semester == "" {
		return nil, apperr.Validation("semester is required")
	}

	users, err := s.users.ListBySemester(ctx, semester)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return users, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// GetStudentsByDepartment matches students whose department starts with
// prefix, ignoring case and all whitespace.
func (s *ProfileService) GetStudentsByDepartment(ctx context.Context, caller security.Identity, prefix string) ([]models.User, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	normalized := strings.ToLower(whitespace.ReplaceAllString(prefix, ""))
	if normalized == "" {
		return nil, apperr.Validation("department is required")
	}

	users, err := s.users.ListStudentsByDepartmentPrefix(ctx, normalized)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return users, nil
}

func (s *ProfileService) GetByID(ctx context.Context, caller security.Identity, id string) (models.User, error) {
	if err := requireStaff(caller); err != nil {
		return models.User{}, err
	}
	if !ids.Valid(id) {
		return models.User{}, apperr.Validation("Valid user ID is required")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, userError(err)
	}
	return user, nil
}

func (s *ProfileService) ListTeachers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return users, nil
}

func requireStaff(caller security.Identity) error {
	if !caller.HasRole(models.RoleTeacher, models.RoleAdmin) {
		return apperr.Forbidden("Unauthorized")
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	return apperr.Internal("Internal server error", err)
}
