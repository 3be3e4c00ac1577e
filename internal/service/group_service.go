package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/ids"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/repository"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/validation"
)

type GroupService struct {
	groups GroupStore
	log    zerolog.Logger
}

func NewGroupService(groups GroupStore, log zerolog.Logger) *GroupService {
	return &GroupService{groups: groups, log: log}
}

type GroupInput struct {
	Name           string   `json:"name" validate:"notblank"`
	Description    string   `json:"description" validate:"notblank"`
	Subject        string   `json:"subject" validate:"notblank"`
	MaxMembers     int      `json:"max_Members" validate:"min=1"`
	ProfControlled bool     `json:"prof_controlled"`
	StudentIDs     []string `json:"student_id" validate:"omitempty,dive,objectid"`
}

func (s *GroupService) Create(ctx context.Context, caller security.Identity, input GroupInput) (GroupView, error) {
	if !caller.HasRole(models.RoleTeacher, models.RoleAdmin) {
		return GroupView{}, apperr.Forbidden("Only teachers and admins can create study groups")
	}
	if err := validation.Struct(input); err != nil {
		return GroupView{}, err
	}

	now := time.Now().UTC()
	group := models.StudyGroup{
		ID:             ids.New(),
		Name:           strings.TrimSpace(input.Name),
		Description:    strings.TrimSpace(input.Description),
		CreatedBy:      caller.UserID,
		StudentIDs:     dedupe(input.StudentIDs),
		TeacherIDs:     []string{caller.UserID},
		Subject:        strings.TrimSpace(input.Subject),
		MaxMembers:     input.MaxMembers,
		ProfControlled: input.ProfControlled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if group.MemberCount() > group.MaxMembers {
		return GroupView{}, apperr.Validation("Group members exceed max_Members")
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return GroupView{}, s.storeError(err)
	}

	s.log.Info().Str("group_id", group.ID).Str("created_by", caller.UserID).Msg("study group created")
	return groupView(group), nil
}

// Update edits a group owned by the caller.
func (s *GroupService) Update(ctx context.Context, caller security.Identity, groupID string, patch models.GroupPatch) (GroupView, error) {
	if !ids.Valid(groupID) {
		return GroupView{}, apperr.Validation("Valid group ID is required")
	}
	if err := validatePatch(patch); err != nil {
		return GroupView{}, err
	}
	patch = normalizePatch(patch)

	group, err := s.groups.Update(ctx, groupID, caller.UserID, patch)
	if err != nil {
		return GroupView{}, s.storeError(err)
	}
	return groupView(group), nil
}

func (s *GroupService) GetByID(ctx context.Context, groupID string) (GroupView, error) {
	if !ids.Valid(groupID) {
		return GroupView{}, apperr.Validation("Valid group ID is required")
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return GroupView{}, s.storeError(err)
	}
	return groupView(group), nil
}

func (s *GroupService) ListMine(ctx context.Context, caller security.Identity) ([]GroupView, error) {
	groups, err := s.groups.ListByCreator(ctx, caller.UserID)
	if err != nil {
		return nil, s.storeError(err)
	}
	return groupViews(groups), nil
}

func (s *GroupService) Delete(ctx context.Context, caller security.Identity, groupID string) error {
	if !caller.HasRole(models.RoleTeacher, models.RoleAdmin) {
		return apperr.Forbidden("Only teachers and admins can delete study groups")
	}
	if !ids.Valid(groupID) {
		return apperr.Validation("Valid group ID is required")
	}
	if err := s.groups.Delete(ctx, groupID, caller.UserID); err != nil {
		return s.storeError(err)
	}
	s.log.Info().Str("group_id", groupID).Str("deleted_by", caller.UserID).Msg("study group deleted")
	return nil
}

// Join adds the calling student to an open group with a free seat.
func (s *GroupService) Join(ctx context.Context, caller security.Identity, groupID string) (GroupView, error) {
	if err := s.checkMembershipCall(caller, groupID); err != nil {
		return GroupView{}, err
	}

	group, err := s.groups.AddStudent(ctx, groupID, caller.UserID)
	if errors.Is(err, repository.ErrNoChange) {
		switch {
		case group.ProfControlled:
			return GroupView{}, apperr.Forbidden("Membership of this group is managed by its teachers")
		case group.HasStudent(caller.UserID):
			return GroupView{}, apperr.Conflict("Already a member of this group")
		default:
			return GroupView{}, apperr.Conflict("Study group is full")
		}
	}
	if err != nil {
		return GroupView{}, s.storeError(err)
	}
	return groupView(group), nil
}

func (s *GroupService) Leave(ctx context.Context, caller security.Identity, groupID string) (GroupView, error) {
	if err := s.checkMembershipCall(caller, groupID); err != nil {
		return GroupView{}, err
	}

	group, err := s.groups.RemoveStudent(ctx, groupID, caller.UserID)
	if errors.Is(err, repository.ErrNoChange) {
		return GroupView{}, apperr.Conflict("Not a member of this group")
	}
	if err != nil {
		return GroupView{}, s.storeError(err)
	}
	return groupView(group), nil
}

func (s *GroupService) checkMembershipCall(caller security.Identity, groupID string) error {
	if caller.Role != models.RoleStudent {
		return apperr.Forbidden("Only students can join or leave study groups")
	}
	if !ids.Valid(groupID) {
		return apperr.Validation("Valid group ID is required")
	}
	return nil
}

func (s *GroupService) storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrGroupNotFound):
		return apperr.NotFound("Study group not found")
	case errors.Is(err, repository.ErrNotOwner):
		return apperr.Forbidden("Only the group creator can modify this group")
	case errors.Is(err, repository.ErrOverCapacity):
		return apperr.Validation("Group members exceed max_Members")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("A study group with this name already exists")
	}
	return apperr.Internal("Internal server error", err)
}

func validatePatch(p models.GroupPatch) error {
	blank := func(field string, v *string) error {
		if v != nil && strings.TrimSpace(*v) == "" {
			return apperr.Validation(field+" cannot be blank", apperr.FieldError{Field: field, Message: field + " cannot be blank"})
		}
		return nil
	}
	if err := blank("name", p.Name); err != nil {
		return err
	}
	if err := blank("description", p.Description); err != nil {
		return err
	}
	if err := blank("subject", p.Subject); err != nil {
		return err
	}
	if p.MaxMembers != nil && *p.MaxMembers < 1 {
		return apperr.Validation("max_Members must be at least 1")
	}
	if p.StudentIDs != nil {
		for _, id := range *p.StudentIDs {
			if !ids.Valid(id) {
				return apperr.Validation("student_id must contain valid ids")
			}
		}
	}
	return nil
}

// normalizePatch trims text fields and dedupes student ids the way Create does.
func normalizePatch(p models.GroupPatch) models.GroupPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	p.Name = trim(p.Name)
	p.Description = trim(p.Description)
	p.Subject = trim(p.Subject)
	if p.StudentIDs != nil {
		students := dedupe(*p.StudentIDs)
		p.StudentIDs = &students
	}
	return p
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
