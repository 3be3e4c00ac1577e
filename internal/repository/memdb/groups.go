package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
)

type GroupRepository struct {
	db *groupTable
}

func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db.groups}
}

func (r *GroupRepository) Create(_ context.Context, group models.StudyGroup) error {
	r.db.Lock()
	defer r.db.Unlock()
	for _, g := range r.db.groups {
		if g.Name == group.Name {
			return repository.ErrDuplicate
		}
	}
	r.db.groups[group.ID] = group
	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (models.StudyGroup, error) {
	r.db.Lock()
	defer r.db.Unlock()
	g, ok := r.db.groups[id]
	if !ok {
		return models.StudyGroup{}, repository.ErrGroupNotFound
	}
	return g, nil
}

func (r *GroupRepository) Update(_ context.Context, id, creatorID string, patch models.GroupPatch) (models.StudyGroup, error) {
	r.db.Lock()
	defer r.db.Unlock()
	g, ok := r.db.groups[id]
	if !ok {
		return models.StudyGroup{}, repository.ErrGroupNotFound
	}
	if g.CreatedBy != creatorID {
		return models.StudyGroup{}, repository.ErrNotOwner
	}
	patch.Apply(&g)
	if g.MemberCount() > g.MaxMembers {
		return models.StudyGroup{}, repository.ErrOverCapacity
	}
	for otherID, other := range r.db.groups {
		if otherID != id && other.Name == g.Name {
			return models.StudyGroup{}, repository.ErrDuplicate
		}
	}
	g.UpdatedAt = time.Now().UTC()
	r.db.groups[id] = g
	return g, nil
}

func (r *GroupRepository) Delete(_ context.Context, id, creatorID string) error {
	r.db.Lock()
	defer r.db.Unlock()
	g, ok := r.db.groups[id]
	if !ok {
		return repository.ErrGroupNotFound
	}
	if g.CreatedBy != creatorID {
		return repository.ErrNotOwner
	}
	delete(r.db.groups, id)
	return nil
}

func (r *GroupRepository) ListByCreator(_ context.Context, creatorID string) ([]models.StudyGroup, error) {
	r.db.Lock()
	defer r.db.Unlock()
	out := []models.StudyGroup{}
	for _, g := range r.db.groups {
		if g.CreatedBy == creatorID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AddStudent returns the unchanged group with ErrNoChange when the join is
// refused.
func (r *GroupRepository) AddStudent(_ context.Context, id, studentID string) (models.StudyGroup, error) {
	r.db.Lock()
	defer r.db.Unlock()
	g, ok := r.db.groups[id]
	if !ok {
		return models.StudyGroup{}, repository.ErrGroupNotFound
	}
	if g.ProfControlled || g.HasStudent(studentID) || g.MemberCount() >= g.MaxMembers {
		return g, repository.ErrNoChange
	}
	g.StudentIDs = append(append([]string(nil), g.StudentIDs...), studentID)
	r.db.groups[id] = g
	return g, nil
}

func (r *GroupRepository) RemoveStudent(_ context.Context, id, studentID string) (models.StudyGroup, error) {
	r.db.Lock()
	defer r.db.Unlock()
	g, ok := r.db.groups[id]
	if !ok {
		return models.StudyGroup{}, repository.ErrGroupNotFound
	}
	if !g.HasStudent(studentID) {
		return g, repository.ErrNoChange
	}
	kept := make([]string, 0, len(g.StudentIDs))
	for _, s := range g.StudentIDs {
		if s != studentID {
			kept = append(kept, s)
		}
	}
	g.StudentIDs = kept
	r.db.groups[id] = g
	return g, nil
}
