package memdb

import (
	"context"
	"strings"
	"time"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
)

type UserRepository struct {
	db *userTable
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.users}
}

// Creates counts insert attempts, including rejected ones.
func (r *UserRepository) Creates() int {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.db.creates
}

func (r *UserRepository) Create(_ context.Context, user models.User) error {
	r.db.Lock()
	defer r.db.Unlock()
	r.db.creates++
	for _, u := range r.db.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
		user.UpdatedAt = user.CreatedAt
	}
	r.db.byID[user.ID] = user
	r.db.order = append(r.db.order, user.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (models.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	u, ok := r.db.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string, role models.UserRole) (models.User, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	for _, u := range r.db.byID {
		if u.Email == email && (role == "" || u.Role == role) {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (r *UserRepository) UpdateProfile(_ context.Context, id string, fields models.ProfileFields) (models.User, error) {
	r.db.Lock()
	defer r.db.Unlock()
	u, ok := r.db.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	fields.Apply(&u)
	u.UpdatedAt = time.Now().UTC()
	r.db.byID[id] = u
	return u, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.db.Lock()
	defer r.db.Unlock()
	if _, ok := r.db.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.db.byID, id)
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]models.User, error) {
	return r.filter(func(models.User) bool { return true }), nil
}

func (r *UserRepository) ListByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	return r.filter(func(u models.User) bool { return u.Role == role }), nil
}

func (r *UserRepository) ListBySemester(_ context.Context, semester string) ([]models.User, error) {
	return r.filter(func(u models.User) bool { return u.Semester == semester }), nil
}

// ListStudentsByDepartmentPrefix matches prefix against the department with
// whitespace removed and lowercased.
func (r *UserRepository) ListStudentsByDepartmentPrefix(_ context.Context, prefix string) ([]models.User, error) {
	return r.filter(func(u models.User) bool {
		dept := strings.ToLower(strings.Join(strings.Fields(u.Department), ""))
		return u.Role == models.RoleStudent && strings.HasPrefix(dept, prefix)
	}), nil
}

func (r *UserRepository) SetOnline(_ context.Context, id string, online bool) error {
	r.db.Lock()
	defer r.db.Unlock()
	u, ok := r.db.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsOnline = online
	r.db.byID[id] = u
	return nil
}

func (r *UserRepository) ListOnlineIDs(_ context.Context) ([]string, error) {
	var out []string
	for _, u := range r.filter(func(u models.User) bool { return u.IsOnline }) {
		out = append(out, u.ID)
	}
	return out, nil
}

func (r *UserRepository) filter(keep func(models.User) bool) []models.User {
	r.db.RLock()
	defer r.db.RUnlock()
	out := []models.User{}
	for _, id := range r.db.order {
		if u, ok := r.db.byID[id]; ok && keep(u) {
			out = append(out, u)
		}
	}
	return out
}
