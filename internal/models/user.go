package models

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

const DefaultAvatarURL = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_1280.png"

// User is an identity plus its profile. Student-only and teacher-only fields
// are left empty for the other roles.
type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	Name          string
	AvatarURL     string
	EmailVerified bool
	Role          UserRole

	Department string
	StudentID  string
	Year       string
	Batch      string
	Semester   string

	ProfessorID    string
	Specialisation []string
	Bio            string
	OfficeHours    string
	Subjects       []string

	IsActive  bool
	IsOnline  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileFields are the user-editable parts of a profile. Nil pointers leave
// the stored value untouched.
type ProfileFields struct {
	Name           *string
	AvatarURL      *string
	Department     *string
	StudentID      *string
	Year           *string
	Batch          *string
	Semester       *string
	ProfessorID    *string
	Specialisation *[]string
	Bio            *string
	OfficeHours    *string
	Subjects       *[]string
}

// Apply copies every set field onto u.
func (p ProfileFields) Apply(u *User) {
	setString(&u.Name, p.Name)
	setString(&u.AvatarURL, p.AvatarURL)
	setString(&u.Department, p.Department)
	setString(&u.StudentID, p.StudentID)
	setString(&u.Year, p.Year)
	setString(&u.Batch, p.Batch)
	setString(&u.Semester, p.Semester)
	setString(&u.ProfessorID, p.ProfessorID)
	setString(&u.Bio, p.Bio)
	setString(&u.OfficeHours, p.OfficeHours)
	if p.Specialisation != nil {
		u.Specialisation = append([]string(nil), (*p.Specialisation)...)
	}
	if p.Subjects != nil {
		u.Subjects = append([]string(nil), (*p.Subjects)...)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
