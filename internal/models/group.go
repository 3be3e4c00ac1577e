package models

import "time"

type StudyGroup struct {
	ID             string
	Name           string
	Description    string
	CreatedBy      string
	StudentIDs     []string
	TeacherIDs     []string
	Subject        string
	MaxMembers     int
	ProfControlled bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MemberCount counts students and teachers against MaxMembers.
func (g StudyGroup) MemberCount() int {
	return len(g.StudentIDs) + len(g.TeacherIDs)
}

func (g StudyGroup) HasStudent(userID string) bool {
	for _, id := range g.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// GroupPatch carries an update; nil fields are left unchanged.
type GroupPatch struct {
	Name           *string
	Description    *string
	Subject        *string
	MaxMembers     *int
	ProfControlled *bool
	StudentIDs     *[]string
}

func (p GroupPatch) Apply(g *StudyGroup) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Subject != nil {
		g.Subject = *p.Subject
	}
	if p.MaxMembers != nil {
		g.MaxMembers = *p.MaxMembers
	}
	if p.ProfControlled != nil {
		g.ProfControlled = *p.ProfControlled
	}
	if p.StudentIDs != nil {
		g.StudentIDs = append([]string(nil), (*p.StudentIDs)...)
	}
}
