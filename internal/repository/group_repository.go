package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zorochan404/inf-chat/internal/models"
)

// ErrNotOwner is returned when a group exists but belongs to someone else.
var ErrNotOwner = errors.New("study group owned by another user")

const groupColumns = `id, name, description, created_by, student_ids, teacher_ids, subject,
	max_members, prof_controlled, created_at, updated_at`

type GroupRepository struct {
	db DB
}

func NewGroupRepository(db DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, group models.StudyGroup) error {
	const query = `
		INSERT INTO study_groups (
			id, name, description, created_by, student_ids, teacher_ids, subject,
			max_members, prof_controlled, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.CreatedBy,
		nonNil(group.StudentIDs),
		nonNil(group.TeacherIDs),
		group.Subject,
		group.MaxMembers,
		group.ProfControlled,
	)
	return translate(err)
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (models.StudyGroup, error) {
	return scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM study_groups WHERE id = $1`, id))
}

// Update applies patch to the group when creatorID owns it.
func (r *GroupRepository) Update(ctx context.Context, id, creatorID string, patch models.GroupPatch) (models.StudyGroup, error) {
	var updated models.StudyGroup
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		group, err := scanGroup(tx.QueryRow(ctx, `SELECT `+groupColumns+` FROM study_groups WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if group.CreatedBy != creatorID {
			return ErrNotOwner
		}
		patch.Apply(&group)
		if group.MemberCount() > group.MaxMembers {
			return ErrOverCapacity
		}

		const query = `
			UPDATE study_groups SET
				name = $2, description = $3, subject = $4, max_members = $5,
				prof_controlled = $6, student_ids = $7, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query,
			group.ID,
			group.Name,
			group.Description,
			group.Subject,
			group.MaxMembers,
			group.ProfControlled,
			nonNil(group.StudentIDs),
		).Scan(&group.UpdatedAt); err != nil {
			return translate(err)
		}
		updated = group
		return nil
	})
	if err != nil {
		return models.StudyGroup{}, err
	}
	return updated, nil
}

func (r *GroupRepository) Delete(ctx context.Context, id, creatorID string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		var owner string
		if err := tx.QueryRow(ctx, `SELECT created_by FROM study_groups WHERE id = $1 FOR UPDATE`, id).Scan(&owner); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrGroupNotFound
			}
			return err
		}
		if owner != creatorID {
			return ErrNotOwner
		}
		_, err := tx.Exec(ctx, `DELETE FROM study_groups WHERE id = $1`, id)
		return err
	})
}

func (r *GroupRepository) ListByCreator(ctx context.Context, creatorID string) ([]models.StudyGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT `+groupColumns+` FROM study_groups WHERE created_by = $1 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]models.StudyGroup, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// AddStudent appends studentID to an open, non-full group it is not yet part
// of. When the guard rejects the change the current group is returned along
// with ErrNoChange so the caller can tell why.
func (r *GroupRepository) AddStudent(ctx context.Context, id, studentID string) (models.StudyGroup, error) {
	query := `
		UPDATE study_groups SET student_ids = array_append(student_ids, $2), updated_at = NOW()
		WHERE id = $1
		  AND NOT prof_controlled
		  AND NOT ($2 = ANY(student_ids))
		  AND cardinality(student_ids) + cardinality(teacher_ids) < max_members
		RETURNING ` + groupColumns
	return r.conditionalUpdate(ctx, id, query, id, studentID)
}

func (r *GroupRepository) RemoveStudent(ctx context.Context, id, studentID string) (models.StudyGroup, error) {
	query := `
		UPDATE study_groups SET student_ids = array_remove(student_ids, $2), updated_at = NOW()
		WHERE id = $1 AND $2 = ANY(student_ids)
		RETURNING ` + groupColumns
	return r.conditionalUpdate(ctx, id, query, id, studentID)
}

func (r *GroupRepository) conditionalUpdate(ctx context.Context, id, query string, args ...any) (models.StudyGroup, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, query, args...))
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, ErrGroupNotFound) {
		return models.StudyGroup{}, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return models.StudyGroup{}, err
	}
	return current, ErrNoChange
}

func scanGroup(row pgx.Row) (models.StudyGroup, error) {
	var g models.StudyGroup
	if err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.CreatedBy,
		&g.StudentIDs,
		&g.TeacherIDs,
		&g.Subject,
		&g.MaxMembers,
		&g.ProfControlled,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StudyGroup{}, ErrGroupNotFound
		}
		return models.StudyGroup{}, fmt.Errorf("scan group: %w", err)
	}
	return g, nil
}
